package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// RatingDB is the ratings table and the only writer of
// users.average_rating and users.total_ratings.
type RatingDB struct {
	db *gorm.DB
}

var _ repository.RatingRepository = (*RatingDB)(nil)

// foldScore and unfoldScore are running-mean updates. Both assignments read
// the pre-update row, so the average and the count move together.
func foldScore(score int) map[string]any {
	return map[string]any{
		"average_rating": gorm.Expr(
			"LEAST(5.0, (average_rating * total_ratings + ?::double precision) / (total_ratings + 1))", float64(score)),
		"total_ratings": gorm.Expr("total_ratings + 1"),
	}
}

func unfoldScore(score int) map[string]any {
	return map[string]any{
		"average_rating": gorm.Expr(`CASE WHEN total_ratings <= 1 THEN 0.0
			ELSE GREATEST(0.0, LEAST(5.0,
				(average_rating * total_ratings - ?::double precision) / (total_ratings - 1))) END`, float64(score)),
		"total_ratings": gorm.Expr("GREATEST(total_ratings - 1, 0)"),
	}
}

// Create checks that a content-scoped rating targets the content's author,
// inserts the row and folds the score into the rated user's average. The
// content row is share-locked so it cannot vanish before the insert.
func (r *RatingDB) Create(ctx context.Context, rating *model.Rating) error {
	if err := rating.Validate(); err != nil {
		return err
	}
	rating.CreatedAt = time.Now().UTC()

	return withTx(ctx, r.db, "creating rating", func(tx *gorm.DB) error {
		if rating.ContentID != nil {
			var c contentRow
			err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
				Select("id", "author_id").
				Where("id = ?", *rating.ContentID).
				Take(&c).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ForeignKeyViolation("rating", "content")
			}
			if err != nil {
				return dbError("checking rated content", err, "content", strconv.FormatInt(*rating.ContentID, 10))
			}
			if c.AuthorID != rating.RatedUserID {
				return apperror.ValidationFailed("contentId", "a content rating must rate the content's author")
			}
		}

		row := ratingRow{
			Score:       rating.Score,
			Comment:     rating.Comment,
			CreatedAt:   rating.CreatedAt,
			RaterID:     rating.RaterID,
			RatedUserID: rating.RatedUserID,
			ContentID:   rating.ContentID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbError("creating rating", err, "rating", "")
		}
		rating.ID = row.ID

		return bumpUser(tx, rating.RatedUserID, foldScore(rating.Score))
	})
}

func (r *RatingDB) GetByID(ctx context.Context, id int64) (*model.Rating, error) {
	var row ratingRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, dbError("getting rating", err, "rating", strconv.FormatInt(id, 10))
	}
	rt := row.toModel()
	return &rt, nil
}

func (r *RatingDB) List(ctx context.Context, filter repository.RatingFilter) ([]model.Rating, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.WithContext(ctx).Model(&ratingRow{})
	if filter.RaterID != "" {
		q = q.Where("rater_id = ?", filter.RaterID)
	}
	if filter.RatedUserID != "" {
		q = q.Where("rated_user_id = ?", filter.RatedUserID)
	}
	if filter.ContentID != 0 {
		q = q.Where("content_id = ?", filter.ContentID)
	}
	if filter.MinScore > 0 {
		q = q.Where("rating >= ?", filter.MinScore)
	}
	if filter.MaxScore > 0 {
		q = q.Where("rating <= ?", filter.MaxScore)
	}
	var rows []ratingRow
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, dbError("listing ratings", err, "rating", "")
	}
	return collect(rows, ratingRow.toModel), nil
}

// Delete removes the rating and takes its score back out of the average.
func (r *RatingDB) Delete(ctx context.Context, id int64) error {
	rid := strconv.FormatInt(id, 10)
	return withTx(ctx, r.db, "deleting rating", func(tx *gorm.DB) error {
		var row ratingRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "rating", "rated_user_id").
			Where("id = ?", id).
			Take(&row).Error
		if err != nil {
			return dbError("deleting rating", err, "rating", rid)
		}
		if err := tx.Where("id = ?", id).Delete(&ratingRow{}).Error; err != nil {
			return deleteError("deleting rating", err, "rating", rid)
		}
		return bumpUser(tx, row.RatedUserID, unfoldScore(row.Score))
	})
}
