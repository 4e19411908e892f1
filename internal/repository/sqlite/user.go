package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// UserDB is the users table.
type UserDB struct {
	db *DB
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, first_name, last_name, profile_image_url, username, bio,
	experience_level, total_taught, total_learned, average_rating, total_ratings,
	created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.Username, &u.Bio,
		&u.ExperienceLevel, &u.TotalTaught, &u.TotalLearned, &u.AverageRating, &u.TotalRatings,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user with zeroed aggregates. The ID must already be set;
// it comes from the identity provider.
func (r *UserDB) Create(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ExperienceLevel == "" {
		user.ExperienceLevel = model.LevelBeginner
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.TotalTaught, user.TotalLearned, user.TotalRatings, user.AverageRating = 0, 0, 0, 0

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, profile_image_url, username, bio,
		                    experience_level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL,
		user.Username, user.Bio, user.ExperienceLevel, user.CreatedAt, user.UpdatedAt,
	)
	return dbError("creating user", err, "user", user.ID)
}

// Upsert is the login path: ON CONFLICT(id) refreshes only the fields the
// identity provider owns.
func (r *UserDB) Upsert(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     email             = excluded.email,
		     first_name        = excluded.first_name,
		     last_name         = excluded.last_name,
		     profile_image_url = excluded.profile_image_url,
		     updated_at        = excluded.updated_at`,
		user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL, now, now,
	)
	if err != nil {
		return dbError("upserting user", err, "user", user.ID)
	}

	stored, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (r *UserDB) getBy(ctx context.Context, column, value string) (*model.User, error) {
	u, err := scanUser(r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value))
	if err != nil {
		return nil, dbError("getting user by "+column, err, "user", value)
	}
	return u, nil
}

func (r *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	opts = opts.Normalize()
	query, args, err := r.db.sb.
		Select(userColumns).
		From("users").
		OrderBy("created_at DESC", "id").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building user list query: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing users", err, "user", "")
	}
	defer rows.Close()

	users := make([]model.User, 0, opts.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// Update writes the profile columns. Aggregates in user are ignored and
// refreshed from the row afterwards.
func (r *UserDB) Update(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ExperienceLevel == "" {
		user.ExperienceLevel = model.LevelBeginner
	}

	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, first_name = ?, last_name = ?, profile_image_url = ?,
		     username = ?, bio = ?, experience_level = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.FirstName, user.LastName, user.ProfileImageURL,
		user.Username, user.Bio, user.ExperienceLevel, time.Now().UTC(),
		user.ID,
	)
	if err != nil {
		return dbError("updating user", err, "user", user.ID)
	}
	if err := rowsAffected(res, "user", user.ID); err != nil {
		return err
	}

	stored, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// Delete removes the user along with their skills and grants. Users who
// still author content or have ratings are refused with ErrConflict.
func (r *UserDB) Delete(ctx context.Context, id string) error {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return deleteError("deleting user", err, "user", id)
	}
	return rowsAffected(res, "user", id)
}

// recomputeSQL rebuilds the aggregates from the fact tables. The caller
// appends the WHERE clause.
const recomputeSQL = `
	UPDATE users SET
		total_taught   = (SELECT COUNT(*) FROM content WHERE content.author_id = users.id),
		total_learned  = (SELECT COUNT(*) FROM user_skills
		                   WHERE user_skills.user_id = users.id AND user_skills.wants_to_learn = 1),
		total_ratings  = (SELECT COUNT(*) FROM ratings WHERE ratings.rated_user_id = users.id),
		average_rating = COALESCE((SELECT AVG(rating) FROM ratings WHERE ratings.rated_user_id = users.id), 0),
		updated_at     = ?`

func (r *UserDB) RecomputeAggregates(ctx context.Context, id string) (*model.User, error) {
	res, err := r.db.conn.ExecContext(ctx, recomputeSQL+` WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return nil, dbError("recomputing aggregates", err, "user", id)
	}
	if err := rowsAffected(res, "user", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserDB) RecomputeAllAggregates(ctx context.Context) (int64, error) {
	res, err := r.db.conn.ExecContext(ctx, recomputeSQL, time.Now().UTC())
	if err != nil {
		return 0, dbError("recomputing all aggregates", err, "user", "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

// bumpUser applies an atomic counter change to one user inside q.
func bumpUser(ctx context.Context, q querier, userID, setClause string, args ...any) error {
	args = append(args, time.Now().UTC(), userID)
	res, err := q.ExecContext(ctx,
		`UPDATE users SET `+setClause+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return dbError("updating user aggregates", err, "user", userID)
	}
	return rowsAffected(res, "user", userID)
}
