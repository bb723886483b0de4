// Package sqlite implements store.Store on top of mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"playlist/models"
	"playlist/store"
	"playlist/store/migrations"
)

// DB is a SQLite backed store.
type DB struct {
	db *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open opens the database at dsn, enables foreign keys and applies the schema.
// The dsn can be ":memory:" for an in-memory database.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	memory := strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Up(ctx, db, migrations.SQLite, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// mapError converts driver errors into store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

const userColumns = `id, username, email, password_hash, share_token, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ShareToken, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and sets its ID. The email is stored lower-cased.
func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, share_token, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.ShareToken, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id

	return nil
}

// UserByID retrieves a user by id.
func (d *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, mapError(err))
	}
	return u, nil
}

// UserByLogin retrieves a user by email when identifier looks like one,
// otherwise by username.
func (d *DB) UserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	query, arg := `SELECT `+userColumns+` FROM users WHERE username = ?`, identifier
	if models.IsEmail(identifier) {
		query, arg = `SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(identifier)
	}

	u, err := scanUser(d.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, fmt.Errorf("failed to query user by login: %w", mapError(err))
	}
	return u, nil
}

// UserByShareToken retrieves the owner of token.
func (d *DB) UserByShareToken(ctx context.Context, token string) (*models.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE share_token = ?`, token)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to query user by share token: %w", mapError(err))
	}
	return u, nil
}

func (d *DB) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := d.db.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UsernameTaken reports whether a user already has username.
func (d *DB) UsernameTaken(ctx context.Context, username string) (bool, error) {
	taken, err := d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return taken, nil
}

// EmailTaken reports whether a user already has email.
func (d *DB) EmailTaken(ctx context.Context, email string) (bool, error) {
	taken, err := d.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, models.NormalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

// SetShareToken replaces the share token of the user.
func (d *DB) SetShareToken(ctx context.Context, userID int64, token string) error {
	res, err := d.db.ExecContext(ctx, `UPDATE users SET share_token = ? WHERE id = ?`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update share token: %w", mapError(err))
	}
	return requireRow(res, "user", userID)
}

// CountUsers returns the number of registered users.
func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

const songColumns = `id, title, artist, album, user_id, created_at`

func scanSong(row interface{ Scan(...any) error }) (models.Song, error) {
	var s models.Song
	err := row.Scan(&s.ID, &s.Title, &s.Artist, &s.Album, &s.UserID, &s.CreatedAt)
	return s, err
}

// CreateSong inserts s and sets its ID.
func (d *DB) CreateSong(ctx context.Context, s *models.Song) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO songs (title, artist, album, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.Title, s.Artist, s.Album, s.UserID, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", mapError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read song id: %w", err)
	}
	s.ID = id

	return nil
}

// SongByID retrieves a song by id.
func (d *DB) SongByID(ctx context.Context, id int64) (*models.Song, error) {
	s, err := scanSong(d.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to query song %d: %w", id, mapError(err))
	}
	return &s, nil
}

// SongsByUser lists the songs owned by userID in insertion order.
func (d *DB) SongsByUser(ctx context.Context, userID int64) ([]models.Song, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+songColumns+` FROM songs WHERE user_id = ? ORDER BY id ASC`, userID)
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
	res, err := d.db.ExecContext(ctx,
		`UPDATE songs SET title = ?, artist = ?, album = ? WHERE id = ?`,
		s.Title, s.Artist, s.Album, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", mapError(err))
	}
	return requireRow(res, "song", s.ID)
}

// DeleteSong permanently removes a song.
func (d *DB) DeleteSong(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return requireRow(res, "song", id)
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
