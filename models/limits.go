package models

import "unicode/utf8"

// Column widths of the users and songs tables, in characters.
const (
	MaxUsernameLen = 80
	MaxEmailLen    = 120
	MaxTitleLen    = 200
	MaxArtistLen   = 150
	MaxAlbumLen    = 150
)

// MaxPasswordLen is the longest password bcrypt accepts, in bytes.
const MaxPasswordLen = 72

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
