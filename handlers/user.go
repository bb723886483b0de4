package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"playlist/auth"
	"playlist/middleware"
	"playlist/models"
	"playlist/session"
	"playlist/share"
	"playlist/store"
	"playlist/views"
)

// Handler carries the dependencies shared by every route. It is built once
// at startup and never mutated afterwards.
type Handler struct {
	Store    store.Store
	Sessions *session.Manager
	Hasher   *auth.Hasher
	Share    *share.Resolver
	Log      zerolog.Logger
}

// New creates a Handler.
func New(st store.Store, sessions *session.Manager, hasher *auth.Hasher, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    st,
		Sessions: sessions,
		Hasher:   hasher,
		Share:    share.NewResolver(st, st),
		Log:      log,
	}
}

// render writes the named template inside the layout. Queued flashes are
// consumed and shown together with any inline messages.
func (h *Handler) render(c *fiber.Ctx, name string, bind fiber.Map, inline ...models.Flash) error {
	flashes, err := h.Sessions.Flashes(c)
	if err != nil {
		return err
	}

	bind["User"] = middleware.CurrentUser(c)
	bind["Flashes"] = append(flashes, inline...)

	return c.Render(name, bind, views.Layout)
}

// redirect queues a flash and sends the client to path.
func (h *Handler) redirect(c *fiber.Ctx, path, level, message string) error {
	if err := h.Sessions.AddFlash(c, level, message); err != nil {
		return err
	}
	return c.Redirect(path)
}

func warning(msg string) models.Flash { return models.Flash{Level: models.FlashWarning, Message: msg} }

func danger(msg string) models.Flash { return models.Flash{Level: models.FlashDanger, Message: msg} }

// Health reports whether the store is reachable.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.Store.Ping(c.UserContext()); err != nil {
		h.Log.Error().Err(err).Msg("health check failed")
		return c.Status(fiber.StatusServiceUnavailable).SendString("unavailable")
	}
	return c.SendString("ok")
}
