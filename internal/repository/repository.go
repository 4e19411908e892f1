// Package repository declares the storage contracts the service layer
// depends on. The sqlite and postgres subpackages implement every interface
// here with identical semantics, including the error kinds from apperror.
//
// Aggregate columns on users (total_taught, total_learned, total_ratings,
// average_rating) are maintained by the implementations inside the same
// transaction as the write that changes them. Nothing outside this layer
// writes them.
package repository

import (
	"context"

	"github.com/sakif/skill-sangam/internal/model"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// Upsert inserts the user on first sight or refreshes the identity
	// fields (email, names, image) supplied by the provider. Profile fields
	// and aggregates are left alone. user is reloaded from the store.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	// Update writes profile columns only. Aggregates are never taken from
	// the caller.
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	// RecomputeAggregates rebuilds one user's counters from the fact tables.
	RecomputeAggregates(ctx context.Context, id string) (*model.User, error)
	// RecomputeAllAggregates does the same for every user and reports how
	// many rows were rewritten.
	RecomputeAllAggregates(ctx context.Context) (int64, error)
}

type OAuthRepository interface {
	// Upsert stores cred under its key, replacing the token of an existing
	// grant. cred.ID and cred.CreatedAt are set from the stored row.
	Upsert(ctx context.Context, cred *model.OAuthCredential) error
	Get(ctx context.Context, key model.OAuthKey) (*model.OAuthCredential, error)
	ListByUser(ctx context.Context, userID string) ([]model.OAuthCredential, error)
	// UpdateToken replaces the token of an existing grant and fails with
	// ErrNotFound when there is none.
	UpdateToken(ctx context.Context, key model.OAuthKey, token []byte) error
	Delete(ctx context.Context, key model.OAuthKey) error
}

type SkillFilter struct {
	Category string
	ListOptions
}

type SkillRepository interface {
	Create(ctx context.Context, skill *model.Skill) error
	GetByID(ctx context.Context, id int64) (*model.Skill, error)
	GetByName(ctx context.Context, name string) (*model.Skill, error)
	List(ctx context.Context, filter SkillFilter) ([]model.Skill, error)
	Delete(ctx context.Context, id int64) error
}

type ContentFilter struct {
	AuthorID    string
	SkillID     int64
	ContentType model.ContentType
	ListOptions
}

type ContentRepository interface {
	// Create inserts the row and bumps the author's total_taught.
	Create(ctx context.Context, content *model.Content) error
	GetByID(ctx context.Context, id int64) (*model.Content, error)
	List(ctx context.Context, filter ContentFilter) ([]model.Content, error)
	// Update writes title, description and payload. Author, skill and the
	// counters are immutable through this path.
	Update(ctx context.Context, content *model.Content) error
	// Delete removes the row, decrements the author's total_taught and
	// detaches ratings that referenced it.
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) (int64, error)
	Like(ctx context.Context, id int64) (int64, error)
	Unlike(ctx context.Context, id int64) (int64, error)
}

type RatingFilter struct {
	RaterID     string
	RatedUserID string
	ContentID   int64
	MinScore    int
	MaxScore    int
	ListOptions
}

type RatingRepository interface {
	// Create inserts the rating and folds its score into the rated user's
	// average and count atomically.
	Create(ctx context.Context, rating *model.Rating) error
	GetByID(ctx context.Context, id int64) (*model.Rating, error)
	List(ctx context.Context, filter RatingFilter) ([]model.Rating, error)
	// Delete removes the rating and reverses its effect on the aggregates.
	Delete(ctx context.Context, id int64) error
}

type UserSkillFilter struct {
	UserID       string
	SkillID      int64
	CanTeach     *bool
	WantsToLearn *bool
	ListOptions
}

type UserSkillRepository interface {
	// Create inserts the row; wants_to_learn rows add to total_learned.
	Create(ctx context.Context, us *model.UserSkill) error
	GetByID(ctx context.Context, id int64) (*model.UserSkill, error)
	List(ctx context.Context, filter UserSkillFilter) ([]model.UserSkill, error)
	// Update writes level and flags, adjusting total_learned by the change.
	Update(ctx context.Context, us *model.UserSkill) error
	Delete(ctx context.Context, id int64) error
}

// Store bundles every repository over one backend.
type Store interface {
	Users() UserRepository
	OAuth() OAuthRepository
	Skills() SkillRepository
	Content() ContentRepository
	Ratings() RatingRepository
	UserSkills() UserSkillRepository
	Close() error
}
