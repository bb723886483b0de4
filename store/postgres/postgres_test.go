package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"playlist/models"
	"playlist/store"
	"playlist/store/storetest"
)

// dsnEnv names a disposable database; its tables are emptied by every case.
const dsnEnv = "PLAYLIST_TEST_POSTGRES_DSN"

func openTestDB(t *testing.T) store.Store {
	t.Helper()

	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s is not set", dsnEnv)
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.pool.Exec(ctx, `TRUNCATE songs, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return db
}

func TestUsers(t *testing.T) { storetest.RunUsers(t, openTestDB) }

func TestSongs(t *testing.T) { storetest.RunSongs(t, openTestDB) }

func TestColumnWidths(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Values at the model limits must fit the columns.
	u := &models.User{
		Username:     strings.Repeat("é", models.MaxUsernameLen),
		Email:        strings.Repeat("e", models.MaxEmailLen-6) + "@x.com",
		PasswordHash: "h",
		ShareToken:   strings.Repeat("a", 32),
	}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("failed to create user at the limits: %v", err)
	}

	s := &models.Song{
		Title:  strings.Repeat("t", models.MaxTitleLen),
		Artist: strings.Repeat("a", models.MaxArtistLen),
		Album:  strings.Repeat("b", models.MaxAlbumLen),
		UserID: u.ID,
	}
	if err := db.CreateSong(ctx, s); err != nil {
		t.Fatalf("failed to create song at the limits: %v", err)
	}

	s.Title += "t"
	if err := db.UpdateSong(ctx, s); err == nil || errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected the database to reject an over-long title, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	if err := mapError(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	other := errors.New("boom")
	if err := mapError(other); err != other {
		t.Errorf("expected unrelated errors to pass through, got %v", err)
	}

	if err := mapError(pgx.ErrNoRows); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	dup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"}
	if err := mapError(dup); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}
