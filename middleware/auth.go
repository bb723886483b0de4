package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"playlist/models"
	"playlist/session"
	"playlist/store"
)

const (
	localUser   = "user"
	localSong   = "song"
	localSongID = "songID"
)

// Guard holds what the authentication and ownership checks need.
type Guard struct {
	Sessions *session.Manager
	Users    store.Users
	Songs    store.Songs
	Log      zerolog.Logger
}

// CurrentUser returns the user resolved by LoadUser, or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localUser).(*models.User)
	return u
}

// LoadUser resolves the session's user id to a stored user and exposes it
// through CurrentUser. A session pointing at a deleted user is treated as
// anonymous and the stale id is dropped.
func (g *Guard) LoadUser(c *fiber.Ctx) error {
	id, ok, err := g.Sessions.UserID(c)
	if err != nil {
		return err
	}
	if !ok {
		return c.Next()
	}

	user, err := g.Users.UserByID(c.UserContext(), id)
	switch {
	case err == nil:
		c.Locals(localUser, user)
	case errors.Is(err, store.ErrNotFound):
		g.Log.Warn().Int64("user_id", id).Msg("session references a missing user")
		if err := g.Sessions.Forget(c); err != nil {
			return err
		}
	default:
		return err
	}

	return c.Next()
}

// RequireLogin only lets requests with a logged-in user through. Everyone
// else is sent to the login page with a warning.
func (g *Guard) RequireLogin(c *fiber.Ctx) error {
	if CurrentUser(c) != nil {
		return c.Next()
	}

	if err := g.Sessions.AddFlash(c, models.FlashWarning, "Please log in to access this page."); err != nil {
		return err
	}
	return c.Redirect("/login")
}

// RequireAnonymous keeps logged-in users away from the register and login forms.
func (g *Guard) RequireAnonymous(c *fiber.Ctx) error {
	if CurrentUser(c) != nil {
		return c.Redirect("/")
	}
	return c.Next()
}
