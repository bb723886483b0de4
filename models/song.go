package models

import (
	"strings"
	"time"
)

// Song represents a row of the songs table.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SongInput carries the editable fields of a song as submitted by a form.
type SongInput struct {
	Title  string `form:"title"`
	Artist string `form:"artist"`
	Album  string `form:"album"`
}

// Normalize trims surrounding whitespace from every field.
func (in *SongInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.Album = strings.TrimSpace(in.Album)
}

// Complete reports whether every field is non-empty.
func (in SongInput) Complete() bool {
	return in.Title != "" && in.Artist != "" && in.Album != ""
}

// TooLong reports whether any field exceeds its column width.
func (in SongInput) TooLong() bool {
	return tooLong(in.Title, MaxTitleLen) ||
		tooLong(in.Artist, MaxArtistLen) ||
		tooLong(in.Album, MaxAlbumLen)
}

// Apply copies the input fields onto s.
func (in SongInput) Apply(s *Song) {
	s.Title = in.Title
	s.Artist = in.Artist
	s.Album = in.Album
}
