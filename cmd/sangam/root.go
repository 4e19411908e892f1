package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/skill-sangam/internal/app"
	"github.com/sakif/skill-sangam/internal/config"
)

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "sangam",
		Short: "Skill Sangam store administration",
		Long: `sangam manages the Skill Sangam database.

Examples:
  sangam migrate
  sangam seed-skills --file skills.yaml
  sangam recompute            # every user
  sangam recompute u1 u2      # selected users
  sangam user u1
  sangam auth-url`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newRecomputeCmd(opts),
		newUserCmd(opts),
		newAuthURLCmd(opts),
	)
	return cmd
}

// newLogger builds the process logger. Text output on stderr keeps stdout
// free for command results.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openApp loads configuration and opens the store. The caller closes it.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, *slog.Logger, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		return nil, nil, err
	}
	return a, logger, nil
}
