package service

import (
	"context"
	"log/slog"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

type UserSkillService struct {
	userSkills repository.UserSkillRepository
	retry      RetryPolicy
	logger     *slog.Logger
}

func NewUserSkillService(userSkills repository.UserSkillRepository, retry RetryPolicy, logger *slog.Logger) *UserSkillService {
	return &UserSkillService{userSkills: userSkills, retry: retry, logger: logger}
}

// Declare records that userID can teach and/or wants to learn skillID.
func (s *UserSkillService) Declare(ctx context.Context, userID string, skillID int64, level model.Level, canTeach, wantsToLearn bool) (*model.UserSkill, error) {
	us := &model.UserSkill{
		UserID:       userID,
		SkillID:      skillID,
		SkillLevel:   level,
		CanTeach:     canTeach,
		WantsToLearn: wantsToLearn,
	}
	err := withRetryErr(ctx, s.retry, s.logger, "declaring user skill", func() error {
		return s.userSkills.Create(ctx, us)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user skill declared",
		slog.String("userID", userID),
		slog.Int64("skillID", skillID),
		slog.Bool("canTeach", canTeach),
		slog.Bool("wantsToLearn", wantsToLearn),
	)
	return us, nil
}

func (s *UserSkillService) owned(ctx context.Context, actorID string, id int64) (*model.UserSkill, error) {
	us, err := s.userSkills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if us.UserID != actorID {
		return nil, apperror.Forbidden("user skills can only be changed by their owner")
	}
	return us, nil
}

func (s *UserSkillService) Update(ctx context.Context, actorID string, id int64, level model.Level, canTeach, wantsToLearn bool) (*model.UserSkill, error) {
	return withRetry(ctx, s.retry, s.logger, "updating user skill", func() (*model.UserSkill, error) {
		us, err := s.owned(ctx, actorID, id)
		if err != nil {
			return nil, err
		}
		us.SkillLevel, us.CanTeach, us.WantsToLearn = level, canTeach, wantsToLearn
		if err := s.userSkills.Update(ctx, us); err != nil {
			return nil, err
		}
		return us, nil
	})
}

func (s *UserSkillService) Remove(ctx context.Context, actorID string, id int64) error {
	return withRetryErr(ctx, s.retry, s.logger, "removing user skill", func() error {
		if _, err := s.owned(ctx, actorID, id); err != nil {
			return err
		}
		return s.userSkills.Delete(ctx, id)
	})
}

// ListByUser pages through userID's declared skills, oldest first.
func (s *UserSkillService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.UserSkill, error) {
	return s.userSkills.List(ctx, repository.UserSkillFilter{
		UserID:      userID,
		ListOptions: page(limit, offset),
	})
}

// FindTeachers lists members who can teach skillID.
func (s *UserSkillService) FindTeachers(ctx context.Context, skillID int64, limit, offset int) ([]model.UserSkill, error) {
	return s.userSkills.List(ctx, repository.UserSkillFilter{
		SkillID:     skillID,
		CanTeach:    model.Ptr(true),
		ListOptions: page(limit, offset),
	})
}

// FindLearners lists members who want to learn skillID.
func (s *UserSkillService) FindLearners(ctx context.Context, skillID int64, limit, offset int) ([]model.UserSkill, error) {
	return s.userSkills.List(ctx, repository.UserSkillFilter{
		SkillID:      skillID,
		WantsToLearn: model.Ptr(true),
		ListOptions:  page(limit, offset),
	})
}
