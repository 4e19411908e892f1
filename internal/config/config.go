// Package config reads runtime settings from the environment.
//
// An optional .env file is loaded first; variables already set in the
// environment win over the file. Every setting has a default that works
// for local development with SQLite.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/skill-sangam/internal/credential"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DBDriver    string // DB_DRIVER: sqlite or postgres
	DBPath      string // DB_PATH, sqlite only
	DatabaseURL string // DATABASE_URL, postgres only

	PGMaxOpenConns  int           // PG_MAX_OPEN_CONNS
	PGSlowThreshold time.Duration // PG_SLOW_QUERY_THRESHOLD

	// TokenSecret keys the sealing of stored OAuth tokens. Identity
	// operations are unavailable while it is empty.
	TokenSecret string // TOKEN_SECRET

	LogLevel slog.Level // LOG_LEVEL: debug, info, warn, error

	RetryMaxAttempts     int           // RETRY_MAX_ATTEMPTS
	RetryInitialInterval time.Duration // RETRY_INITIAL_INTERVAL
	RetryMaxInterval     time.Duration // RETRY_MAX_INTERVAL

	GitHubClientID     string // GITHUB_CLIENT_ID
	GitHubClientSecret string // GITHUB_CLIENT_SECRET
	GitHubCallbackURL  string // GITHUB_CALLBACK_URL
}

// Load reads envFile (if it exists) and then the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:             getEnv("DB_PATH", "data/sangam.db"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		TokenSecret:        os.Getenv("TOKEN_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", "http://localhost:8080/auth/github/callback"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.PGMaxOpenConns, err = getInt("PG_MAX_OPEN_CONNS", 20); err != nil {
		return nil, err
	}
	if cfg.PGSlowThreshold, err = getDuration("PG_SLOW_QUERY_THRESHOLD", 200*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RetryMaxAttempts, err = getInt("RETRY_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.RetryInitialInterval, err = getDuration("RETRY_INITIAL_INTERVAL", 25*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RetryMaxInterval, err = getDuration("RETRY_MAX_INTERVAL", time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	if c.TokenSecret != "" && len(c.TokenSecret) < credential.MinSecretLength {
		return fmt.Errorf("config: TOKEN_SECRET must be at least %d characters", credential.MinSecretLength)
	}
	if c.RetryMaxAttempts < 1 {
		return errors.New("config: RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration like 50ms, got %q", key, v)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return l, nil
}
