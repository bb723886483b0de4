// Package share resolves public share tokens to a user's read-only song list.
package share

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"playlist/models"
	"playlist/store"
)

// regenerateAttempts bounds retries when a fresh token collides with an existing one.
const regenerateAttempts = 5

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// NewToken returns a random 32 character lower-case hex token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidToken reports whether token has the shape produced by NewToken.
func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// Resolver maps share tokens to users and their songs.
type Resolver struct {
	users    store.Users
	songs    store.Songs
	newToken func() string
}

// NewResolver creates a Resolver backed by the given repositories.
func NewResolver(users store.Users, songs store.Songs) *Resolver {
	return &Resolver{users: users, songs: songs, newToken: NewToken}
}

// Resolve returns the owner of token and their current songs.
// Unknown or malformed tokens yield store.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, []models.Song, error) {
	if !ValidToken(token) {
		return nil, nil, store.ErrNotFound
	}

	user, err := r.users.UserByShareToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	songs, err := r.songs.SongsByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, songs, nil
}

// Regenerate stores a fresh token for userID and returns it. The previous
// token stops resolving as soon as the update commits.
func (r *Resolver) Regenerate(ctx context.Context, userID int64) (string, error) {
	var err error
	for range regenerateAttempts {
		token := r.newToken()
		err = r.users.SetShareToken(ctx, userID, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return "", err
		}
	}
	return "", fmt.Errorf("share: regenerate token for user %d: %w", userID, err)
}
