package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

type RatingService struct {
	ratings repository.RatingRepository
	retry   RetryPolicy
	logger  *slog.Logger
}

func NewRatingService(ratings repository.RatingRepository, retry RetryPolicy, logger *slog.Logger) *RatingService {
	return &RatingService{ratings: ratings, retry: retry, logger: logger}
}

// Rate records raterID's score for ratedUserID, optionally tied to one of
// their content items, and folds it into the rated user's average.
func (s *RatingService) Rate(ctx context.Context, raterID, ratedUserID string, score int, comment string, contentID *int64) (*model.Rating, error) {
	rating := &model.Rating{
		Score:       score,
		Comment:     strings.TrimSpace(comment),
		RaterID:     strings.TrimSpace(raterID),
		RatedUserID: strings.TrimSpace(ratedUserID),
		ContentID:   contentID,
	}
	err := withRetryErr(ctx, s.retry, s.logger, "rating user", func() error {
		return s.ratings.Create(ctx, rating)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("rating recorded",
		slog.Int64("id", rating.ID),
		slog.String("raterID", rating.RaterID),
		slog.String("ratedUserID", rating.RatedUserID),
		slog.Int("score", rating.Score),
	)
	return rating, nil
}

func (s *RatingService) Get(ctx context.Context, id int64) (*model.Rating, error) {
	return s.ratings.GetByID(ctx, id)
}

func (s *RatingService) ListReceived(ctx context.Context, userID string, limit, offset int) ([]model.Rating, error) {
	return s.ratings.List(ctx, repository.RatingFilter{RatedUserID: userID, ListOptions: page(limit, offset)})
}

func (s *RatingService) ListGiven(ctx context.Context, userID string, limit, offset int) ([]model.Rating, error) {
	return s.ratings.List(ctx, repository.RatingFilter{RaterID: userID, ListOptions: page(limit, offset)})
}

func (s *RatingService) ListForContent(ctx context.Context, contentID int64, limit, offset int) ([]model.Rating, error) {
	return s.ratings.List(ctx, repository.RatingFilter{ContentID: contentID, ListOptions: page(limit, offset)})
}

// Delete withdraws a rating. Only the rater may do so; the score is taken
// back out of the rated user's average.
func (s *RatingService) Delete(ctx context.Context, actorID string, id int64) error {
	err := withRetryErr(ctx, s.retry, s.logger, "deleting rating", func() error {
		r, err := s.ratings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if r.RaterID != actorID {
			return apperror.Forbidden("only the rater may withdraw a rating")
		}
		return s.ratings.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("rating withdrawn", slog.Int64("id", id), slog.String("raterID", actorID))
	return nil
}
