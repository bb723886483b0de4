// Package postgres implements store.Store on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"

	"playlist/models"
	"playlist/store"
	"playlist/store/migrations"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DB is a PostgreSQL backed store.
type DB struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*DB)(nil)

// Open connects to the database described by dsn and applies the schema.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// goose works on database/sql, so migrate over a short-lived stdlib handle.
	sqlDB := stdlib.OpenDB(*cfg.ConnConfig)
	defer sqlDB.Close()
	if err := migrations.Up(ctx, sqlDB, migrations.Postgres, logger); err != nil {
		pool.Close()
		return nil, err
	}

	return &DB{pool: pool}, nil
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

const userColumns = `id, username, email, password_hash, share_token, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ShareToken, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills in its ID and CreatedAt.
func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)

	query := `INSERT INTO users (username, email, password_hash, share_token) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := d.pool.QueryRow(ctx, query, u.Username, u.Email, u.PasswordHash, u.ShareToken).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	return nil
}

// UserByID retrieves a user by id.
func (d *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, mapError(err))
	}
	return u, nil
}

// UserByLogin retrieves a user by email when identifier looks like one,
// otherwise by username.
func (d *DB) UserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	query, arg := `SELECT `+userColumns+` FROM users WHERE username = $1`, identifier
	if models.IsEmail(identifier) {
		query, arg = `SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeEmail(identifier)
	}

	u, err := scanUser(d.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, fmt.Errorf("failed to query user by login: %w", mapError(err))
	}
	return u, nil
}

// UserByShareToken retrieves the owner of token.
func (d *DB) UserByShareToken(ctx context.Context, token string) (*models.User, error) {
	u, err := scanUser(d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE share_token = $1`, token))
	if err != nil {
		return nil, fmt.Errorf("failed to query user by share token: %w", mapError(err))
	}
	return u, nil
}

// UsernameTaken reports whether a user already has username.
func (d *DB) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return taken, nil
}

// EmailTaken reports whether a user already has email.
func (d *DB) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, models.NormalizeEmail(email)).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

// SetShareToken replaces the share token of the user.
func (d *DB) SetShareToken(ctx context.Context, userID int64, token string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE users SET share_token = $1 WHERE id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update share token: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
	}
	return nil
}

// CountUsers returns the number of registered users.
func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

const songColumns = `id, title, artist, album, user_id, created_at`

func scanSong(row pgx.Row) (models.Song, error) {
	var s models.Song
	err := row.Scan(&s.ID, &s.Title, &s.Artist, &s.Album, &s.UserID, &s.CreatedAt)
	return s, err
}

// CreateSong inserts s and fills in its ID and CreatedAt.
func (d *DB) CreateSong(ctx context.Context, s *models.Song) error {
	query := `INSERT INTO songs (title, artist, album, user_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := d.pool.QueryRow(ctx, query, s.Title, s.Artist, s.Album, s.UserID).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", mapError(err))
	}
	return nil
}

// SongByID retrieves a song by id.
func (d *DB) SongByID(ctx context.Context, id int64) (*models.Song, error) {
	s, err := scanSong(d.pool.QueryRow(ctx, `SELECT `+songColumns+` FROM songs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to query song %d: %w", id, mapError(err))
	}
	return &s, nil
}

// SongsByUser lists the songs owned by userID in insertion order.
func (d *DB) SongsByUser(ctx context.Context, userID int64) ([]models.Song, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+songColumns+` FROM songs WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// UpdateSong writes the title, artist and album of s.
func (d *DB) UpdateSong(ctx context.Context, s *models.Song) error {
	tag, err := d.pool.Exec(ctx, `UPDATE songs SET title = $1, artist = $2, album = $3 WHERE id = $4`,
		s.Title, s.Artist, s.Album, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("song %d: %w", s.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteSong permanently removes a song.
func (d *DB) DeleteSong(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("song %d: %w", id, store.ErrNotFound)
	}
	return nil
}
