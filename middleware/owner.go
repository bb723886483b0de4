package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"playlist/models"
	"playlist/store"
)

// Song returns the song loaded by SongOwner.
func Song(c *fiber.Ctx) *models.Song {
	s, _ := c.Locals(localSong).(*models.Song)
	return s
}

// SongOwner loads the song named by the :id parameter and only continues
// when it belongs to the current user. Unknown songs are a 404; somebody
// else's song redirects home with a danger message and nothing is changed.
// It must run after RequireLogin and ValidateID.
func (g *Guard) SongOwner(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return g.RequireLogin(c)
	}

	id, _ := c.Locals(localSongID).(int64)
	song, err := g.Songs.SongByID(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}

	if song.UserID != user.ID {
		g.Log.Warn().
			Int64("user_id", user.ID).
			Int64("song_id", song.ID).
			Str("path", c.Path()).
			Msg("song ownership check failed")
		if err := g.Sessions.AddFlash(c, models.FlashDanger, "You do not have permission to modify this song."); err != nil {
			return err
		}
		return c.Redirect("/")
	}

	c.Locals(localSong, song)
	return c.Next()
}
