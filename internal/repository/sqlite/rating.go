package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// RatingDB is the ratings table. It owns users.average_rating and
// users.total_ratings: both move only here, inside the rating's transaction.
type RatingDB struct {
	db *DB
}

var _ repository.RatingRepository = (*RatingDB)(nil)

const ratingColumns = `id, rating, comment, created_at, rater_id, rated_user_id, content_id`

// Running-mean updates. Every right-hand side sees the pre-update row, so
// average and count move together in one statement. The clamps only absorb
// floating point drift at the ends of the range.
const (
	foldScoreSQL = `average_rating = MIN(5.0, (average_rating * total_ratings + CAST(? AS REAL)) / (total_ratings + 1)),
		total_ratings = total_ratings + 1`
	unfoldScoreSQL = `average_rating = CASE WHEN total_ratings <= 1 THEN 0.0
		ELSE MAX(0.0, MIN(5.0, (average_rating * total_ratings - CAST(? AS REAL)) / (total_ratings - 1))) END,
		total_ratings = MAX(total_ratings - 1, 0)`
)

func scanRating(row rowScanner) (*model.Rating, error) {
	var r model.Rating
	if err := row.Scan(&r.ID, &r.Score, &r.Comment, &r.CreatedAt, &r.RaterID, &r.RatedUserID, &r.ContentID); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create checks that a content-scoped rating targets the content's author,
// inserts the row and folds the score into the rated user's average.
func (r *RatingDB) Create(ctx context.Context, rating *model.Rating) error {
	if err := rating.Validate(); err != nil {
		return err
	}
	rating.CreatedAt = time.Now().UTC()

	return r.db.withTx(ctx, "creating rating", func(q querier) error {
		if rating.ContentID != nil {
			var authorID string
			err := q.QueryRowContext(ctx,
				`SELECT author_id FROM content WHERE id = ?`, *rating.ContentID,
			).Scan(&authorID)
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ForeignKeyViolation("rating", "content")
			}
			if err != nil {
				return dbError("checking rated content", err, "content", strconv.FormatInt(*rating.ContentID, 10))
			}
			if authorID != rating.RatedUserID {
				return apperror.ValidationFailed("contentId", "a content rating must rate the content's author")
			}
		}

		res, err := q.ExecContext(ctx,
			`INSERT INTO ratings (rating, comment, created_at, rater_id, rated_user_id, content_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rating.Score, rating.Comment, rating.CreatedAt, rating.RaterID, rating.RatedUserID, rating.ContentID,
		)
		if err != nil {
			return dbError("creating rating", err, "rating", "")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading rating id: %w", err)
		}
		rating.ID = id

		return bumpUser(ctx, q, rating.RatedUserID, foldScoreSQL, rating.Score)
	})
}

func (r *RatingDB) GetByID(ctx context.Context, id int64) (*model.Rating, error) {
	rt, err := scanRating(r.db.conn.QueryRowContext(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE id = ?`, id))
	if err != nil {
		return nil, dbError("getting rating", err, "rating", strconv.FormatInt(id, 10))
	}
	return rt, nil
}

func (r *RatingDB) List(ctx context.Context, filter repository.RatingFilter) ([]model.Rating, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.sb.Select(ratingColumns).From("ratings")
	if filter.RaterID != "" {
		q = q.Where(sqrl.Eq{"rater_id": filter.RaterID})
	}
	if filter.RatedUserID != "" {
		q = q.Where(sqrl.Eq{"rated_user_id": filter.RatedUserID})
	}
	if filter.ContentID != 0 {
		q = q.Where(sqrl.Eq{"content_id": filter.ContentID})
	}
	if filter.MinScore > 0 {
		q = q.Where(sqrl.GtOrEq{"rating": filter.MinScore})
	}
	if filter.MaxScore > 0 {
		q = q.Where(sqrl.LtOrEq{"rating": filter.MaxScore})
	}
	query, args, err := q.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building rating list query: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing ratings", err, "rating", "")
	}
	defer rows.Close()

	ratings := make([]model.Rating, 0, opts.Limit)
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning rating row: %w", err)
		}
		ratings = append(ratings, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ratings: %w", err)
	}
	return ratings, nil
}

// Delete removes the rating and takes its score back out of the average.
func (r *RatingDB) Delete(ctx context.Context, id int64) error {
	rid := strconv.FormatInt(id, 10)
	return r.db.withTx(ctx, "deleting rating", func(q querier) error {
		var ratedUserID string
		var score int
		err := q.QueryRowContext(ctx,
			`DELETE FROM ratings WHERE id = ? RETURNING rated_user_id, rating`, id,
		).Scan(&ratedUserID, &score)
		if err != nil {
			return deleteError("deleting rating", err, "rating", rid)
		}
		return bumpUser(ctx, q, ratedUserID, unfoldScoreSQL, score)
	})
}
