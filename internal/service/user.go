package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// UserPatch carries the profile fields a member may edit. Nil fields are
// left unchanged; a blank Username clears it.
type UserPatch struct {
	FirstName       *string
	LastName        *string
	Username        *string
	Bio             *string
	ExperienceLevel *model.Level
}

type UserService struct {
	users  repository.UserRepository
	retry  RetryPolicy
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, retry RetryPolicy, logger *slog.Logger) *UserService {
	return &UserService{users: users, retry: retry, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	return s.users.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	users, err := s.users.List(ctx, page(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies patch to the stored user. Aggregates are never
// touched here.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch UserPatch) (*model.User, error) {
	return withRetry(ctx, s.retry, s.logger, "updating profile", func() (*model.User, error) {
		user, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if patch.FirstName != nil {
			user.FirstName = strings.TrimSpace(*patch.FirstName)
		}
		if patch.LastName != nil {
			user.LastName = strings.TrimSpace(*patch.LastName)
		}
		if patch.Username != nil {
			user.Username = trimPtr(patch.Username)
		}
		if patch.Bio != nil {
			user.Bio = strings.TrimSpace(*patch.Bio)
		}
		if patch.ExperienceLevel != nil {
			user.ExperienceLevel = *patch.ExperienceLevel
		}

		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("profile updated", slog.String("userID", user.ID))
		return user, nil
	})
}

// Delete removes a member. It fails with ErrConflict while they still
// author content or take part in ratings.
func (s *UserService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}
	err := withRetryErr(ctx, s.retry, s.logger, "deleting user", func() error {
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

// Recompute rebuilds one user's aggregates from the fact tables.
func (s *UserService) Recompute(ctx context.Context, id string) (*model.User, error) {
	user, err := withRetry(ctx, s.retry, s.logger, "recomputing aggregates", func() (*model.User, error) {
		return s.users.RecomputeAggregates(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("aggregates recomputed",
		slog.String("userID", id),
		slog.Int("totalTaught", user.TotalTaught),
		slog.Int("totalLearned", user.TotalLearned),
		slog.Int("totalRatings", user.TotalRatings),
	)
	return user, nil
}

func (s *UserService) RecomputeAll(ctx context.Context) (int64, error) {
	n, err := withRetry(ctx, s.retry, s.logger, "recomputing all aggregates", func() (int64, error) {
		return s.users.RecomputeAllAggregates(ctx)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("aggregates recomputed for all users", slog.Int64("users", n))
	return n, nil
}
