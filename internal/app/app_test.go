package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skill-sangam/internal/config"
	"github.com/sakif/skill-sangam/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:             config.DriverSQLite,
		DBPath:               filepath.Join(t.TempDir(), "nested", "sangam.db"),
		RetryMaxAttempts:     3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSQLiteWithoutSecret(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.Nil(t, a.Identity)
	assert.Nil(t, a.GitHub)

	skill, err := a.Skills.Create(context.Background(), "Go", "Programming", "")
	require.NoError(t, err)
	assert.NotZero(t, skill.ID)
}

func TestNewWithIdentity(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenSecret = "0123456789abcdef0123"
	cfg.GitHubClientID = "client"

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NotNil(t, a.Identity)
	require.NotNil(t, a.GitHub)
	assert.Equal(t, "github", a.GitHub.Name())
}

func TestNewRejectsShortSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.TokenSecret = "short"
	_, err := New(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = "oracle"
	_, err := OpenStore(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	require.NoError(t, a.Store.Users().Create(ctx, &model.User{ID: "u1"}))
	require.NoError(t, a.Close())

	b, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	u, err := b.Users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.LevelBeginner, u.ExperienceLevel)
}
