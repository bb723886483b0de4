package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/storage/redis/v3"
	"github.com/rs/zerolog"

	"playlist/auth"
	"playlist/config"
	"playlist/session"
	"playlist/store"
	"playlist/store/postgres"
	"playlist/store/sqlite"
)

// shutdownTimeout bounds how long in-flight requests get on shutdown.
const shutdownTimeout = 10 * time.Second

// App is a fully wired application ready to serve.
type App struct {
	Cfg   *config.Config
	Fiber *fiber.App
	Store store.Store
	Log   zerolog.Logger

	sessionStorage fiber.Storage
}

// OpenStore connects to the configured database and applies the schema.
func OpenStore(ctx context.Context, cfg config.Database, log zerolog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func sessionStorage(cfg *config.Config) fiber.Storage {
	if cfg.Session.Storage != config.StorageRedis {
		return nil
	}
	return redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		Database: cfg.Redis.Database,
	})
}

// Build connects every dependency described by cfg.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	key := cfg.Session.Secret
	if key == "" {
		key = encryptcookie.GenerateKey()
		log.Warn().Msg("session.secret is not set; using a random key, sessions will not survive a restart")
	}

	storage := sessionStorage(cfg)
	sessions := session.NewManager(session.Config{
		Storage:    storage,
		Expiration: cfg.Session.Expiration,
		Secure:     cfg.Session.Secure,
	})

	app := New(Deps{
		Store:     st,
		Sessions:  sessions,
		Hasher:    auth.NewHasher(cfg.BcryptCost),
		Log:       log,
		CookieKey: key,
	})

	return &App{Cfg: cfg, Fiber: app, Store: st, Log: log, sessionStorage: storage}, nil
}

// Run serves HTTP on ln until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		a.Log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errc <- a.Fiber.Listener(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.Log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

// Close releases the store and the session storage.
func (a *App) Close() error {
	var errs []error
	if a.sessionStorage != nil {
		errs = append(errs, a.sessionStorage.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
