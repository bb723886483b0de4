package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends for sessions.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type HTTP struct {
	Addr string
}

type Database struct {
	Driver string
	DSN    string
}

type Session struct {
	Storage    string
	Secret     string
	Secure     bool
	Expiration time.Duration
}

type Redis struct {
	Host     string
	Port     int
	Username string
	Password string
	Database int
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	HTTP       HTTP
	Database   Database
	Session    Session
	Redis      Redis
	Log        Log
	BcryptCost int
}

// Load reads configuration from the optional YAML file at path and from
// PLAYLIST_* environment variables, e.g. PLAYLIST_DATABASE_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("playlist")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "playlist.db")
	v.SetDefault("session.storage", StorageMemory)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.expiration", "24h")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		HTTP:     HTTP{Addr: v.GetString("http.addr")},
		Database: Database{Driver: v.GetString("database.driver"), DSN: v.GetString("database.dsn")},
		Session: Session{
			Storage:    v.GetString("session.storage"),
			Secret:     v.GetString("session.secret"),
			Secure:     v.GetBool("session.secure"),
			Expiration: v.GetDuration("session.expiration"),
		},
		Redis: Redis{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Username: v.GetString("redis.username"),
			Password: v.GetString("redis.password"),
			Database: v.GetInt("redis.database"),
		},
		Log:        Log{Level: v.GetString("log.level"), Format: v.GetString("log.format")},
		BcryptCost: v.GetInt("auth.bcrypt_cost"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}

	switch c.Session.Storage {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("config: unknown session storage %q", c.Session.Storage)
	}

	if c.Session.Secret != "" {
		key, err := base64.StdEncoding.DecodeString(c.Session.Secret)
		if err != nil {
			return fmt.Errorf("config: session.secret must be base64: %w", err)
		}
		switch len(key) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("config: session.secret must decode to 16, 24 or 32 bytes, got %d", len(key))
		}
	}

	if c.Session.Expiration <= 0 {
		return fmt.Errorf("config: session.expiration must be positive")
	}

	return nil
}
