// Package session keeps the logged-in user id and flash messages in a
// server-side Fiber session keyed by a cookie.
//
// Fiber releases a session back to its pool on Save, so every method here
// loads, mutates and saves within a single call.
package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"playlist/models"
)

// CookieName is the name of the cookie holding the session id.
const CookieName = "playlist_session"

const (
	keyUserID  = "user_id"
	keyFlashes = "flashes"
)

// Config configures a Manager. A nil Storage keeps sessions in memory.
type Config struct {
	Storage    fiber.Storage
	Expiration time.Duration
	Secure     bool
}

// Manager establishes, reads and tears down user sessions.
type Manager struct {
	store *session.Store
}

// NewManager creates a Manager with an HTTP-only, SameSite=Lax cookie.
func NewManager(cfg Config) *Manager {
	store := session.New(session.Config{
		Storage:        cfg.Storage,
		Expiration:     cfg.Expiration,
		KeyLookup:      "cookie:" + CookieName,
		CookieSecure:   cfg.Secure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})
	store.RegisterType([]models.Flash{})

	return &Manager{store: store}
}

// Login binds userID to a freshly rotated session id and queues flashes.
func (m *Manager) Login(c *fiber.Ctx, userID int64, flashes ...models.Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("session: get: %w", err)
	}

	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("session: regenerate: %w", err)
	}

	sess.Set(keyUserID, userID)
	if len(flashes) > 0 {
		sess.Set(keyFlashes, append(pending(sess), flashes...))
	}

	if err := sess.Save(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Logout discards every value held by the session. The optional flashes
// are carried over to a new, anonymous session.
func (m *Manager) Logout(c *fiber.Ctx, flashes ...models.Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("session: get: %w", err)
	}

	if len(flashes) == 0 {
		if err := sess.Destroy(); err != nil {
			return fmt.Errorf("session: destroy: %w", err)
		}
		return nil
	}

	if err := sess.Reset(); err != nil {
		return fmt.Errorf("session: reset: %w", err)
	}

	sess.Set(keyFlashes, flashes)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// UserID returns the id of the logged-in user, if any.
func (m *Manager) UserID(c *fiber.Ctx) (int64, bool, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, false, fmt.Errorf("session: get: %w", err)
	}

	id, ok := sess.Get(keyUserID).(int64)
	return id, ok, nil
}

// Forget removes the user id from the session, keeping other values.
func (m *Manager) Forget(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("session: get: %w", err)
	}

	sess.Delete(keyUserID)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(c *fiber.Ctx, level, message string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("session: get: %w", err)
	}

	sess.Set(keyFlashes, append(pending(sess), models.Flash{Level: level, Message: message}))
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Flashes returns and clears the queued messages.
func (m *Manager) Flashes(c *fiber.Ctx) ([]models.Flash, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	flashes := pending(sess)
	if len(flashes) == 0 {
		return nil, nil
	}

	sess.Delete(keyFlashes)
	if err := sess.Save(); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}
	return flashes, nil
}

func pending(sess *session.Session) []models.Flash {
	flashes, _ := sess.Get(keyFlashes).([]models.Flash)
	return flashes
}
