package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_DRIVER", "DB_PATH", "DATABASE_URL", "PG_MAX_OPEN_CONNS", "PG_SLOW_QUERY_THRESHOLD",
		"TOKEN_SECRET", "LOG_LEVEL", "RETRY_MAX_ATTEMPTS", "RETRY_INITIAL_INTERVAL", "RETRY_MAX_INTERVAL",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_CALLBACK_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/sangam.db", cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.RetryInitialInterval)
	assert.Equal(t, 20, cfg.PGMaxOpenConns)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/sangam")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("RETRY_INITIAL_INTERVAL", "5ms")
	t.Setenv("TOKEN_SECRET", "0123456789abcdef")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 2, cfg.RetryMaxAttempts)
	assert.Equal(t, 5*time.Millisecond, cfg.RetryInitialInterval)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even when empty.
	os.Unsetenv("DB_PATH")
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_PATH=/tmp/from-file.db\nLOG_LEVEL=error\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadMissingDotEnvIsFine(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver":       {"DB_DRIVER": "mysql"},
		"postgres without url": {"DB_DRIVER": "postgres"},
		"short secret":         {"TOKEN_SECRET": "short"},
		"bad level":            {"LOG_LEVEL": "loud"},
		"bad attempts":         {"RETRY_MAX_ATTEMPTS": "many"},
		"zero attempts":        {"RETRY_MAX_ATTEMPTS": "0"},
		"bad interval":         {"RETRY_INITIAL_INTERVAL": "soon"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
