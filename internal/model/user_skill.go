package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
)

// UserSkill records a user's relationship to one skill: how well they know
// it and whether they offer to teach it, want to learn it, or both.
type UserSkill struct {
	ID           int64     `json:"id"`
	SkillLevel   Level     `json:"skillLevel"`
	CanTeach     bool      `json:"canTeach"`
	WantsToLearn bool      `json:"wantsToLearn"`
	CreatedAt    time.Time `json:"createdAt"`
	UserID       string    `json:"userId"`
	SkillID      int64     `json:"skillId"`
}

func (us *UserSkill) Validate() error {
	if !us.SkillLevel.Valid() {
		return apperror.ValidationFailed("skillLevel",
			fmt.Sprintf("unknown skill level %q", us.SkillLevel))
	}
	if strings.TrimSpace(us.UserID) == "" {
		return apperror.ValidationFailed("userId", "user is required")
	}
	if us.SkillID <= 0 {
		return apperror.ValidationFailed("skillId", "skill is required")
	}
	if !us.CanTeach && !us.WantsToLearn {
		return apperror.ValidationFailed("canTeach", "a user skill must be teachable, wanted, or both")
	}
	return nil
}
