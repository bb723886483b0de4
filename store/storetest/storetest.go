// Package storetest contains shared helpers and repository test cases for
// every store.Store implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"playlist/models"
	"playlist/store"
	"playlist/store/sqlite"
)

// Open returns an in-memory SQLite store with the schema applied.
// The store is closed when the test finishes.
func Open(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.Open(context.Background(), ":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// CreateUser inserts a user with a placeholder hash and the given share token.
func CreateUser(t *testing.T, db store.Users, username, token string) *models.User {
	t.Helper()

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$placeholder",
		ShareToken:   token,
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

// CreateSong inserts a song owned by userID.
func CreateSong(t *testing.T, db store.Songs, userID int64, title string) *models.Song {
	t.Helper()

	s := &models.Song{Title: title, Artist: "Artist", Album: "Album", UserID: userID}
	if err := db.CreateSong(context.Background(), s); err != nil {
		t.Fatalf("failed to create song %s: %v", title, err)
	}
	return s
}
