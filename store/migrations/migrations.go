// Package migrations holds the embedded schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Driver names accepted by Up. They match config.Database.Driver.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

func dialectFor(driver string) (goose.Dialect, error) {
	switch driver {
	case Postgres:
		return goose.DialectPostgres, nil
	case SQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Up applies every pending migration for driver on db.
func Up(ctx context.Context, db *sql.DB, driver string, logger zerolog.Logger) error {
	dialect, err := dialectFor(driver)
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(files, driver)
	if err != nil {
		return fmt.Errorf("migrations: open %s: %w", driver, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migrations: new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}

	for _, r := range results {
		logger.Info().
			Int64("version", r.Source.Version).
			Str("path", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("migration applied")
	}

	return nil
}
