// Package model defines the entities persisted by the store and the
// invariants each one must satisfy before it is written.
//
// Validation lives on the structs themselves so that every backend and every
// service applies the same rules. The database repeats the important ones as
// CHECK constraints; the Go checks exist to produce a precise field error
// instead of a generic constraint failure.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
)

// Level is the shared beginner/intermediate/advanced scale used both for a
// user's overall experience and for proficiency in a single skill.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

const MaxUsernameLength = 80

// User is a registered member.
//
// The ID comes from the external identity provider and is never generated
// here. Email and Username are optional, but unique when present, so they
// are pointers: nil means "not set" and is stored as NULL.
//
// TotalTaught, TotalLearned, TotalRatings and AverageRating are aggregates
// derived from other tables. They are only ever changed by the store, in
// the same transaction as the rows they summarise.
type User struct {
	ID              string    `json:"id"`
	Email           *string   `json:"email,omitempty"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	ProfileImageURL string    `json:"profileImageUrl"`
	Username        *string   `json:"username,omitempty"`
	Bio             string    `json:"bio"`
	ExperienceLevel Level     `json:"experienceLevel"`
	TotalTaught     int       `json:"totalTaught"`
	TotalLearned    int       `json:"totalLearned"`
	AverageRating   float64   `json:"averageRating"`
	TotalRatings    int       `json:"totalRatings"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DisplayName picks the friendliest name available.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Email != nil {
		return *u.Email
	}
	return u.ID
}

// Validate checks the profile fields. An empty ExperienceLevel is accepted
// and means the store default (beginner).
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return apperror.ValidationFailed("id", "user id is required")
	}
	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if email == "" || !strings.Contains(email, "@") {
			return apperror.ValidationFailed("email", "email must be a valid address")
		}
	}
	if u.Username != nil {
		name := strings.TrimSpace(*u.Username)
		if name == "" {
			return apperror.ValidationFailed("username", "username must not be blank")
		}
		if len(name) > MaxUsernameLength {
			return apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
		}
	}
	if u.ExperienceLevel != "" && !u.ExperienceLevel.Valid() {
		return apperror.ValidationFailed("experienceLevel",
			fmt.Sprintf("unknown experience level %q", u.ExperienceLevel))
	}
	return nil
}

// Ptr returns a pointer to v. Handy for the optional columns.
func Ptr[T any](v T) *T {
	return &v
}
