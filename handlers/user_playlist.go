package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"playlist/middleware"
	"playlist/models"
	"playlist/store"
)

// Index shows the landing page to visitors and the song list to users.
func (h *Handler) Index(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		// Visitors get the landing page
		return h.render(c, "index", fiber.Map{"Title": "Welcome"})
	}

	// Only the user's own songs, oldest first
	songs, err := h.Store.SongsByUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}

	return h.render(c, "index", fiber.Map{"Title": "My playlist", "Songs": songs})
}

// ShareLink shows the current user's public link.
func (h *Handler) ShareLink(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return h.render(c, "share", fiber.Map{
		"Title":    "Share",
		"ShareURL": c.BaseURL() + "/shared/" + user.ShareToken,
	})
}

// RegenerateShare replaces the current user's share token, invalidating the old link.
func (h *Handler) RegenerateShare(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	// The old token stops working as soon as this commits
	if _, err := h.Share.Regenerate(c.UserContext(), user.ID); err != nil {
		return err
	}

	h.Log.Info().Int64("user_id", user.ID).Msg("share token regenerated")

	return h.redirect(c, "/share", models.FlashSuccess, "Your share link has been regenerated. The old link no longer works.")
}

// Shared shows a read-only song list to anyone holding the owner's token.
func (h *Handler) Shared(c *fiber.Ctx) error {
	// No session needed; the token is the credential
	owner, songs, err := h.Share.Resolve(c.UserContext(), c.Params("token"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}

	return h.render(c, "shared", fiber.Map{
		"Title": owner.Username + "'s playlist",
		"Owner": owner,
		"Songs": songs,
	})
}
