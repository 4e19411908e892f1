// Package app is the composition root: it opens the configured store and
// wires every service on top of it.
//
// DEPENDENCY FLOW:
//
//	config.Config → store (sqlite or postgres) → services
//
// Callers (the CLI today) get one *App, use its services and Close it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/skill-sangam/internal/config"
	"github.com/sakif/skill-sangam/internal/credential"
	"github.com/sakif/skill-sangam/internal/identity"
	"github.com/sakif/skill-sangam/internal/repository"
	pgRepo "github.com/sakif/skill-sangam/internal/repository/postgres"
	sqliteRepo "github.com/sakif/skill-sangam/internal/repository/sqlite"
	"github.com/sakif/skill-sangam/internal/service"
)

type App struct {
	Store repository.Store

	Users      *service.UserService
	Skills     *service.SkillService
	Content    *service.ContentService
	Ratings    *service.RatingService
	UserSkills *service.UserSkillService

	// Identity and GitHub are nil when TOKEN_SECRET is not configured.
	Identity *service.IdentityService
	GitHub   identity.Provider

	logger *slog.Logger
}

// New opens the store named by cfg, bringing its schema up to date, and
// builds the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	retry := service.RetryPolicy{
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
	}

	a := &App{
		Store:      store,
		Users:      service.NewUserService(store.Users(), retry, logger),
		Skills:     service.NewSkillService(store.Skills(), retry, logger),
		Content:    service.NewContentService(store.Content(), retry, logger),
		Ratings:    service.NewRatingService(store.Ratings(), retry, logger),
		UserSkills: service.NewUserSkillService(store.UserSkills(), retry, logger),
		logger:     logger,
	}

	if cfg.TokenSecret == "" {
		logger.Warn("TOKEN_SECRET not set; identity operations are disabled")
		return a, nil
	}
	sealer, err := credential.NewSealer(cfg.TokenSecret)
	if err != nil {
		store.Close()
		return nil, err
	}
	a.Identity = service.NewIdentityService(store.Users(), store.OAuth(), sealer, retry, logger)
	if cfg.GitHubClientID != "" {
		a.GitHub = identity.NewGitHubProvider(identity.GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			CallbackURL:  cfg.GitHubCallbackURL,
		})
	}
	return a, nil
}

// OpenStore opens and migrates the backend cfg selects.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("app: creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("app: opening sqlite: %w", err)
		}
		logger.Info("store opened", slog.String("driver", cfg.DBDriver), slog.String("path", cfg.DBPath))
		return db, nil

	case config.DriverPostgres:
		opts := pgRepo.DefaultOptions()
		opts.SlowThreshold = cfg.PGSlowThreshold
		if cfg.PGMaxOpenConns > 0 {
			opts.MaxOpenConns = cfg.PGMaxOpenConns
		}
		db, err := pgRepo.New(cfg.DatabaseURL, logger, opts)
		if err != nil {
			return nil, fmt.Errorf("app: opening postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("app: migrating postgres: %w", err)
		}
		logger.Info("store opened", slog.String("driver", cfg.DBDriver))
		return db, nil
	}
	return nil, fmt.Errorf("app: unknown database driver %q", cfg.DBDriver)
}

func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("app: closing store: %w", err)
	}
	a.logger.Debug("store closed")
	return nil
}
