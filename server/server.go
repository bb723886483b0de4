// Package server assembles the Fiber application from its dependencies.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"playlist/auth"
	"playlist/handlers"
	"playlist/middleware"
	"playlist/session"
	"playlist/store"
	"playlist/views"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Store    store.Store
	Sessions *session.Manager
	Hasher   *auth.Hasher
	Log      zerolog.Logger
	// CookieKey is the base64 AES key used to encrypt cookies.
	CookieKey string
}

// New builds the application with every route registered.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "playlist",
		Views:                 views.New(),
		ErrorHandler:          errorHandler(d.Log),
		DisableStartupMessage: true,
	})

	h := handlers.New(d.Store, d.Sessions, d.Hasher, d.Log)
	guard := &middleware.Guard{Sessions: d.Sessions, Users: d.Store, Songs: d.Store, Log: d.Log}

	app.Use(recover.New())
	app.Use(middleware.Logging(d.Log))
	app.Use(encryptcookie.New(encryptcookie.Config{Key: d.CookieKey}))
	app.Use(guard.LoadUser)

	routes(app, h, guard)

	return app
}

func routes(app *fiber.App, h *handlers.Handler, guard *middleware.Guard) {
	// owned prefixes handler with the login, id and ownership checks.
	owned := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{guard.RequireLogin, middleware.ValidateID, guard.SongOwner, handler}
	}

	app.Get("/", h.Index)
	app.Get("/healthz", h.Health)

	// Authentication
	app.Get("/register", guard.RequireAnonymous, h.RegisterForm)
	app.Post("/register", guard.RequireAnonymous, h.Register)
	app.Get("/login", guard.RequireAnonymous, h.LoginForm)
	app.Post("/login", guard.RequireAnonymous, h.Login)
	app.Get("/logout", guard.RequireLogin, h.LogoutForm)
	app.Post("/logout/confirm", guard.RequireLogin, h.Logout)

	// Songs
	app.Get("/add_song", guard.RequireLogin, h.AddSongForm)
	app.Post("/add_song", guard.RequireLogin, h.AddSong)
	app.Get("/edit/:id", owned(h.EditSongForm)...)
	app.Post("/edit/:id", owned(h.EditSong)...)
	app.Get("/delete/:id", owned(h.DeleteSongForm)...)
	app.Post("/delete/:id/confirm", owned(h.DeleteSong)...)
	app.Post("/update/:id", owned(h.UpdateSong)...)

	// Sharing
	app.Get("/share", guard.RequireLogin, h.ShareLink)
	app.Get("/share/regenerate", guard.RequireLogin, h.RegenerateShare)
	app.Get("/shared/:token", h.Shared)
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong. Please try again."

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code == fiber.StatusNotFound {
			message = "The page you were looking for does not exist."
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}

		c.Status(code)
		bind := fiber.Map{
			"Title":   "Error",
			"Status":  code,
			"Message": message,
			"User":    middleware.CurrentUser(c),
		}
		if rerr := c.Render("error", bind, views.Layout); rerr != nil {
			log.Error().Err(rerr).Msg("render error page")
			return c.Status(code).SendString(message)
		}
		return nil
	}
}
