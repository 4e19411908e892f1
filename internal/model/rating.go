package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one user's score of another, optionally about a piece of content.
// Ratings are immutable once written; they can only be deleted.
type Rating struct {
	ID          int64     `json:"id"`
	Score       int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
	RaterID     string    `json:"raterId"`
	RatedUserID string    `json:"ratedUserId"`
	ContentID   *int64    `json:"contentId,omitempty"`
}

func (r *Rating) Validate() error {
	if r.Score < MinScore || r.Score > MaxScore {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be between %d and %d", MinScore, MaxScore))
	}
	if strings.TrimSpace(r.RaterID) == "" {
		return apperror.ValidationFailed("raterId", "rater is required")
	}
	if strings.TrimSpace(r.RatedUserID) == "" {
		return apperror.ValidationFailed("ratedUserId", "rated user is required")
	}
	if r.RaterID == r.RatedUserID {
		return apperror.ValidationFailed("ratedUserId", "users cannot rate themselves")
	}
	if r.ContentID != nil && *r.ContentID <= 0 {
		return apperror.ValidationFailed("contentId", "content id must be positive")
	}
	return nil
}
