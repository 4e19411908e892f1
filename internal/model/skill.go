package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
)

const (
	MaxSkillNameLength = 100
	MaxCategoryLength  = 50
)

// Skill is a catalog entry. Names are unique across the catalog.
type Skill struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Skill) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return apperror.ValidationFailed("name", "skill name is required")
	}
	// Names are unique as stored, so "Go " and "Go" must not both get in.
	if name != s.Name {
		return apperror.ValidationFailed("name", "skill name must not start or end with spaces")
	}
	if len(s.Name) > MaxSkillNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("skill name must be %d characters or less", MaxSkillNameLength))
	}
	if strings.TrimSpace(s.Category) == "" {
		return apperror.ValidationFailed("category", "skill category is required")
	}
	if len(s.Category) > MaxCategoryLength {
		return apperror.ValidationFailed("category",
			fmt.Sprintf("skill category must be %d characters or less", MaxCategoryLength))
	}
	return nil
}
