package sqlite_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"playlist/store"
	"playlist/store/sqlite"
	"playlist/store/storetest"
)

func openStore(t *testing.T) store.Store { return storetest.Open(t) }

func TestUsers(t *testing.T) { storetest.RunUsers(t, openStore) }

func TestSongs(t *testing.T) { storetest.RunSongs(t, openStore) }

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	dsn := t.TempDir() + "/playlist.db"

	db, err := sqlite.Open(ctx, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open %s: %v", dsn, err)
	}
	alice := storetest.CreateUser(t, db, "alice", "tok1")
	db.Close()

	// Reopening applies no migration twice and keeps the data.
	db, err = sqlite.Open(ctx, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to reopen %s: %v", dsn, err)
	}
	defer db.Close()

	if _, err := db.UserByID(ctx, alice.ID); err != nil {
		t.Errorf("expected alice to survive a reopen: %v", err)
	}
}
