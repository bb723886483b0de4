package share

import (
	"context"
	"errors"
	"testing"

	"playlist/store"
	"playlist/store/storetest"
)

func TestNewToken(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		tok := NewToken()
		if !ValidToken(tok) {
			t.Fatalf("token %q is not 32 hex characters", tok)
		}
		if seen[tok] {
			t.Fatalf("token %q generated twice", tok)
		}
		seen[tok] = true
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolve", func(t *testing.T) {
		db := storetest.Open(t)
		alice := storetest.CreateUser(t, db, "alice", NewToken())
		bob := storetest.CreateUser(t, db, "bob", NewToken())
		storetest.CreateSong(t, db, alice.ID, "A")
		storetest.CreateSong(t, db, alice.ID, "B")
		storetest.CreateSong(t, db, bob.ID, "C")

		r := NewResolver(db, db)
		user, songs, err := r.Resolve(ctx, alice.ShareToken)
		if err != nil {
			t.Fatalf("failed to resolve token: %v", err)
		}

		if user.ID != alice.ID {
			t.Errorf("expected user %d, got %d", alice.ID, user.ID)
		}

		if len(songs) != 2 || songs[0].Title != "A" || songs[1].Title != "B" {
			t.Errorf("unexpected songs: %+v", songs)
		}

		again, songsAgain, err := r.Resolve(ctx, alice.ShareToken)
		if err != nil || again.ID != user.ID || len(songsAgain) != len(songs) {
			t.Errorf("second resolve differs: %v %+v", err, songsAgain)
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		db := storetest.Open(t)
		r := NewResolver(db, db)

		for _, tok := range []string{NewToken(), "", "not-a-token", "' OR 1=1 --"} {
			if _, _, err := r.Resolve(ctx, tok); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Resolve(%q): expected ErrNotFound, got %v", tok, err)
			}
		}
	})

	t.Run("Regenerate", func(t *testing.T) {
		db := storetest.Open(t)
		alice := storetest.CreateUser(t, db, "alice", NewToken())
		storetest.CreateSong(t, db, alice.ID, "A")
		r := NewResolver(db, db)

		first, err := r.Regenerate(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to regenerate: %v", err)
		}
		second, err := r.Regenerate(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to regenerate: %v", err)
		}

		for _, old := range []string{alice.ShareToken, first} {
			if _, _, err := r.Resolve(ctx, old); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("old token %s still resolves: %v", old, err)
			}
		}

		user, songs, err := r.Resolve(ctx, second)
		if err != nil {
			t.Fatalf("failed to resolve new token: %v", err)
		}
		if user.ID != alice.ID || len(songs) != 1 {
			t.Errorf("new token resolved to user %d with %d songs", user.ID, len(songs))
		}
	})

	t.Run("RegenerateRetriesOnCollision", func(t *testing.T) {
		db := storetest.Open(t)
		alice := storetest.CreateUser(t, db, "alice", NewToken())
		bob := storetest.CreateUser(t, db, "bob", NewToken())
		fresh := NewToken()

		r := NewResolver(db, db)
		queue := []string{bob.ShareToken, fresh}
		r.newToken = func() string {
			tok := queue[0]
			queue = queue[1:]
			return tok
		}

		got, err := r.Regenerate(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to regenerate: %v", err)
		}
		if got != fresh {
			t.Errorf("expected %s after collision, got %s", fresh, got)
		}
	})

	t.Run("RegenerateUnknownUser", func(t *testing.T) {
		db := storetest.Open(t)
		r := NewResolver(db, db)

		if _, err := r.Regenerate(ctx, 404); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
