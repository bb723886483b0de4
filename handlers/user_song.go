package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"playlist/middleware"
	"playlist/models"
	"playlist/store"
)

const msgSongFields = "Please fill out all fields."

var msgSongTooLong = fmt.Sprintf(
	"Titles are limited to %d characters, artists and albums to %d.",
	models.MaxTitleLen, models.MaxArtistLen)

// songProblem returns the warning for unusable input, or "" when it can be saved.
func songProblem(in models.SongInput) string {
	switch {
	case !in.Complete():
		return msgSongFields
	case in.TooLong():
		return msgSongTooLong
	}
	return ""
}

func songForm(s *models.Song) models.SongInput {
	return models.SongInput{Title: s.Title, Artist: s.Artist, Album: s.Album}
}

func parseSong(c *fiber.Ctx) (models.SongInput, error) {
	var in models.SongInput
	if err := c.BodyParser(&in); err != nil {
		return in, fiber.ErrBadRequest
	}
	in.Normalize()
	return in, nil
}

// AddSongForm shows the empty song form.
func (h *Handler) AddSongForm(c *fiber.Ctx) error {
	return h.render(c, "add", fiber.Map{"Title": "Add song", "Form": models.SongInput{}})
}

// AddSong creates a song owned by the current user.
func (h *Handler) AddSong(c *fiber.Ctx) error {
	in, err := parseSong(c)
	if err != nil {
		return err
	}

	if msg := songProblem(in); msg != "" {
		return h.render(c, "add", fiber.Map{"Title": "Add song", "Form": in}, warning(msg))
	}

	// The song always belongs to whoever is logged in
	user := middleware.CurrentUser(c)
	song := &models.Song{UserID: user.ID}
	in.Apply(song)

	// Save it
	if err := h.Store.CreateSong(c.UserContext(), song); err != nil {
		return err
	}

	h.Log.Info().Int64("user_id", user.ID).Int64("song_id", song.ID).Msg("song added")

	return h.redirect(c, "/", models.FlashSuccess, "Song added.")
}

// EditSongForm shows the song form pre-filled with the current values.
func (h *Handler) EditSongForm(c *fiber.Ctx) error {
	song := middleware.Song(c)
	return h.render(c, "edit", fiber.Map{"Title": "Edit song", "Song": song, "Form": songForm(song)})
}

// EditSong saves the submitted edit form.
func (h *Handler) EditSong(c *fiber.Ctx) error {
	in, err := parseSong(c)
	if err != nil {
		return err
	}

	// SongOwner already checked the song belongs to the user
	song := middleware.Song(c)
	if msg := songProblem(in); msg != "" {
		return h.render(c, "edit", fiber.Map{"Title": "Edit song", "Song": song, "Form": in}, warning(msg))
	}

	return h.saveSong(c, song, in)
}

// UpdateSong applies submitted fields without rendering a form. An
// incomplete submission is sent back to the edit page.
func (h *Handler) UpdateSong(c *fiber.Ctx) error {
	in, err := parseSong(c)
	if err != nil {
		return err
	}

	// No form of its own, so problems are reported on the edit page
	song := middleware.Song(c)
	if msg := songProblem(in); msg != "" {
		return h.redirect(c, "/edit/"+strconv.FormatInt(song.ID, 10), models.FlashWarning, msg)
	}

	return h.saveSong(c, song, in)
}

func (h *Handler) saveSong(c *fiber.Ctx, song *models.Song, in models.SongInput) error {
	in.Apply(song)

	// The song may have been deleted since the guard loaded it
	err := h.Store.UpdateSong(c.UserContext(), song)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}

	h.Log.Info().Int64("user_id", song.UserID).Int64("song_id", song.ID).Msg("song updated")

	return h.redirect(c, "/", models.FlashSuccess, "Song updated.")
}

// DeleteSongForm asks for confirmation before deleting.
func (h *Handler) DeleteSongForm(c *fiber.Ctx) error {
	return h.render(c, "delete", fiber.Map{"Title": "Delete song", "Song": middleware.Song(c)})
}

// DeleteSong permanently removes the song.
func (h *Handler) DeleteSong(c *fiber.Ctx) error {
	song := middleware.Song(c)

	// Hard delete
	err := h.Store.DeleteSong(c.UserContext(), song.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}

	h.Log.Info().Int64("user_id", song.UserID).Int64("song_id", song.ID).Msg("song deleted")

	return h.redirect(c, "/", models.FlashSuccess, "Song deleted.")
}
