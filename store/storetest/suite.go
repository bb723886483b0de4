package storetest

import (
	"context"
	"errors"
	"testing"

	"playlist/models"
	"playlist/store"
)

// Opener returns an empty, migrated store for one test case.
type Opener func(t *testing.T) store.Store

// RunUsers runs the user repository cases against stores returned by open.
func RunUsers(t *testing.T, open Opener) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db := open(t)
		u := &models.User{Username: "alice", Email: "  Alice@X.com ", PasswordHash: "hash", ShareToken: "tok1"}

		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if u.ID == 0 {
			t.Error("user ID should be set after creation")
		}

		got, err := db.UserByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if got.Email != "alice@x.com" {
			t.Errorf("expected lower-cased email, got %q", got.Email)
		}
	})

	t.Run("Duplicates", func(t *testing.T) {
		db := open(t)
		CreateUser(t, db, "alice", "tok1")

		dupes := []*models.User{
			{Username: "alice", Email: "other@x.com", PasswordHash: "h", ShareToken: "tok2"},
			{Username: "other", Email: "ALICE@example.com", PasswordHash: "h", ShareToken: "tok3"},
			{Username: "other", Email: "other@x.com", PasswordHash: "h", ShareToken: "tok1"},
		}
		for _, u := range dupes {
			if err := db.CreateUser(ctx, u); !errors.Is(err, store.ErrDuplicate) {
				t.Errorf("expected ErrDuplicate for %+v, got %v", u, err)
			}
		}

		n, err := db.CountUsers(ctx)
		if err != nil {
			t.Fatalf("failed to count users: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 user, got %d", n)
		}
	})

	t.Run("EmptyPasswordHash", func(t *testing.T) {
		db := open(t)
		u := &models.User{Username: "alice", Email: "a@x.com", ShareToken: "tok"}
		if err := db.CreateUser(ctx, u); err == nil {
			t.Error("expected check constraint to reject an empty hash")
		}
	})

	t.Run("UserByLogin", func(t *testing.T) {
		db := open(t)
		alice := CreateUser(t, db, "alice", "tok1")

		for _, ident := range []string{"alice", "alice@example.com", "ALICE@Example.com"} {
			got, err := db.UserByLogin(ctx, ident)
			if err != nil {
				t.Fatalf("UserByLogin(%q): %v", ident, err)
			}
			if got.ID != alice.ID {
				t.Errorf("UserByLogin(%q) = %d, want %d", ident, got.ID, alice.ID)
			}
		}

		if _, err := db.UserByLogin(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UserByLoginEmailShape", func(t *testing.T) {
		db := open(t)
		// The store does not police usernames, so one can look like another
		// user's email. An identifier with "@" only ever matches emails.
		carol := &models.User{Username: "carol", Email: "carol@x.com", PasswordHash: "h", ShareToken: "tok1"}
		imposter := &models.User{Username: "carol@x.com", Email: "imposter@x.com", PasswordHash: "h", ShareToken: "tok2"}
		for _, u := range []*models.User{imposter, carol} {
			if err := db.CreateUser(ctx, u); err != nil {
				t.Fatalf("failed to create %s: %v", u.Username, err)
			}
		}

		got, err := db.UserByLogin(ctx, "carol@x.com")
		if err != nil {
			t.Fatalf("UserByLogin: %v", err)
		}
		if got.ID != carol.ID {
			t.Errorf("expected the email owner %d, got %d", carol.ID, got.ID)
		}

		if _, err := db.UserByLogin(ctx, "imposter"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound for an unknown username, got %v", err)
		}
	})

	t.Run("Taken", func(t *testing.T) {
		db := open(t)
		CreateUser(t, db, "alice", "tok1")

		if taken, _ := db.UsernameTaken(ctx, "alice"); !taken {
			t.Error("expected username to be taken")
		}
		if taken, _ := db.UsernameTaken(ctx, "bob"); taken {
			t.Error("expected username to be free")
		}
		if taken, _ := db.EmailTaken(ctx, "Alice@Example.com"); !taken {
			t.Error("expected email to be taken")
		}
	})

	t.Run("ShareToken", func(t *testing.T) {
		db := open(t)
		alice := CreateUser(t, db, "alice", "tok1")

		if err := db.SetShareToken(ctx, alice.ID, "tok2"); err != nil {
			t.Fatalf("failed to set token: %v", err)
		}

		if _, err := db.UserByShareToken(ctx, "tok1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected old token to be gone, got %v", err)
		}

		got, err := db.UserByShareToken(ctx, "tok2")
		if err != nil || got.ID != alice.ID {
			t.Errorf("expected tok2 to resolve to alice, got %v %v", got, err)
		}

		if err := db.SetShareToken(ctx, 999, "tok3"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown user, got %v", err)
		}
	})
}

// RunSongs runs the song repository cases against stores returned by open.
func RunSongs(t *testing.T, open Opener) {
	ctx := context.Background()

	t.Run("CRUD", func(t *testing.T) {
		db := open(t)
		alice := CreateUser(t, db, "alice", "tok1")
		song := CreateSong(t, db, alice.ID, "A")

		got, err := db.SongByID(ctx, song.ID)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if got.Title != "A" || got.UserID != alice.ID {
			t.Errorf("unexpected song: %+v", got)
		}

		got.Title = "A2"
		if err := db.UpdateSong(ctx, got); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		got, _ = db.SongByID(ctx, song.ID)
		if got.Title != "A2" {
			t.Errorf("expected updated title, got %q", got.Title)
		}

		if err := db.DeleteSong(ctx, song.ID); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		if _, err := db.SongByID(ctx, song.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		if err := db.DeleteSong(ctx, song.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("SongsByUser", func(t *testing.T) {
		db := open(t)
		alice := CreateUser(t, db, "alice", "tok1")
		bob := CreateUser(t, db, "bob", "tok2")
		CreateSong(t, db, alice.ID, "A")
		CreateSong(t, db, bob.ID, "B")
		CreateSong(t, db, alice.ID, "C")

		songs, err := db.SongsByUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}

		if len(songs) != 2 || songs[0].Title != "A" || songs[1].Title != "C" {
			t.Errorf("unexpected songs: %+v", songs)
		}

		empty, err := db.SongsByUser(ctx, 999)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", empty)
		}
	})

	t.Run("ForeignKey", func(t *testing.T) {
		db := open(t)
		s := &models.Song{Title: "A", Artist: "B", Album: "C", UserID: 42}
		if err := db.CreateSong(ctx, s); err == nil {
			t.Error("expected foreign key violation for unknown owner")
		}
	})
}
