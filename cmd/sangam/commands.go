package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/skill-sangam/internal/catalog"
	"github.com/sakif/skill-sangam/internal/identity"
	"github.com/sakif/skill-sangam/internal/model"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, logger, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			logger.Info("schema up to date")
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-skills",
		Short: "Insert catalog skills that do not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				skills []model.Skill
				err    error
			)
			if file == "" {
				skills, err = catalog.Default()
			} else {
				skills, err = catalog.LoadFile(file)
			}
			if err != nil {
				return err
			}

			a, logger, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := catalog.Seed(cmd.Context(), a.Skills, skills)
			if err != nil {
				logger.Error("seeding failed", slog.Int("created", created), slog.String("error", err.Error()))
				return err
			}
			logger.Info("catalog seeded",
				slog.Int("skills", len(skills)),
				slog.Int("created", created),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d skills created\n", created, len(skills))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog (default: built-in catalog)")
	return cmd
}

func newRecomputeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute [user-id...]",
		Short: "Rebuild user aggregates from content, ratings and skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				n, err := a.Users.RecomputeAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d users\n", n)
				return nil
			}
			for _, id := range args {
				u, err := a.Users.Recompute(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("recomputing %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s taught=%d learned=%d ratings=%d average=%.2f\n",
					u.ID, u.TotalTaught, u.TotalLearned, u.TotalRatings, u.AverageRating)
			}
			return nil
		},
	}
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Print a user with their aggregates as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.Users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(u)
		},
	}
}

// newAuthURLCmd prints a provider sign-in URL with a fresh state value, for
// checking the OAuth client configuration by hand.
func newAuthURLCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth-url",
		Short: "Print a GitHub sign-in URL and the state it carries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.GitHub == nil {
				return errors.New("GitHub sign-in is not configured (set TOKEN_SECRET and GITHUB_CLIENT_ID)")
			}
			state := identity.NewState()
			fmt.Fprintf(cmd.OutOrStdout(), "state: %s\nurl:   %s\n", state, a.GitHub.AuthURL(state))
			return nil
		},
	}
}
