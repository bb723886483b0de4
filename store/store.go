// Package store defines the persistence contract for users and songs.
//
// Implementations live in the postgres and sqlite subpackages. Both return
// the sentinel errors below (possibly wrapped) so callers can use errors.Is.
package store

import (
	"context"
	"errors"

	"playlist/models"
)

var (
	// ErrNotFound is returned when a lookup matches no rows.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Users is the user repository.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// UserByLogin matches an identifier containing "@" against the
	// (lower-cased) email and anything else against the username.
	UserByLogin(ctx context.Context, identifier string) (*models.User, error)
	UserByShareToken(ctx context.Context, token string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	SetShareToken(ctx context.Context, userID int64, token string) error
	CountUsers(ctx context.Context) (int64, error)
}

// Songs is the song repository.
type Songs interface {
	CreateSong(ctx context.Context, s *models.Song) error
	SongByID(ctx context.Context, id int64) (*models.Song, error)
	// SongsByUser returns the user's songs in insertion order.
	SongsByUser(ctx context.Context, userID int64) ([]models.Song, error)
	UpdateSong(ctx context.Context, s *models.Song) error
	DeleteSong(ctx context.Context, id int64) error
}

// Store is everything the application needs from the database.
type Store interface {
	Users
	Songs
	Ping(ctx context.Context) error
	Close() error
}
