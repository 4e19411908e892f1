package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

type SkillService struct {
	skills repository.SkillRepository
	retry  RetryPolicy
	logger *slog.Logger
}

func NewSkillService(skills repository.SkillRepository, retry RetryPolicy, logger *slog.Logger) *SkillService {
	return &SkillService{skills: skills, retry: retry, logger: logger}
}

func (s *SkillService) Create(ctx context.Context, name, category, description string) (*model.Skill, error) {
	skill := &model.Skill{
		Name:        strings.TrimSpace(name),
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
	}
	err := withRetryErr(ctx, s.retry, s.logger, "creating skill", func() error {
		return s.skills.Create(ctx, skill)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("skill created", slog.Int64("id", skill.ID), slog.String("name", skill.Name))
	return skill, nil
}

// EnsureSkill returns the skill named like want, creating it if needed.
// A concurrent creator winning the race is not an error.
func (s *SkillService) EnsureSkill(ctx context.Context, want model.Skill) (*model.Skill, bool, error) {
	name := strings.TrimSpace(want.Name)
	existing, err := s.skills.GetByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, err
	}

	created, err := s.Create(ctx, name, want.Category, want.Description)
	if errors.Is(err, apperror.ErrConflict) {
		existing, err := s.skills.GetByName(ctx, name)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *SkillService) Get(ctx context.Context, id int64) (*model.Skill, error) {
	return s.skills.GetByID(ctx, id)
}

func (s *SkillService) GetByName(ctx context.Context, name string) (*model.Skill, error) {
	return s.skills.GetByName(ctx, strings.TrimSpace(name))
}

// List returns skills ordered by name, optionally limited to one category.
func (s *SkillService) List(ctx context.Context, category string, limit, offset int) ([]model.Skill, error) {
	return s.skills.List(ctx, repository.SkillFilter{
		Category:    strings.TrimSpace(category),
		ListOptions: page(limit, offset),
	})
}

// Delete fails with ErrConflict while content or user skills use the skill.
func (s *SkillService) Delete(ctx context.Context, id int64) error {
	err := withRetryErr(ctx, s.retry, s.logger, "deleting skill", func() error {
		return s.skills.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("skill deleted", slog.Int64("id", id))
	return nil
}
