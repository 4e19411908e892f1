package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

type UserDB struct {
	db *gorm.DB
}

var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a user with zeroed aggregates. The ID comes from the
// identity provider.
func (r *UserDB) Create(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ExperienceLevel == "" {
		user.ExperienceLevel = model.LevelBeginner
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	user.TotalTaught, user.TotalLearned, user.TotalRatings, user.AverageRating = 0, 0, 0, 0

	row := newUserRow(user)
	return dbError("creating user", r.db.WithContext(ctx).Create(&row).Error, "user", user.ID)
}

// Upsert is the login path. On conflict only the provider-owned columns
// are refreshed; username, bio, level and aggregates are left alone.
func (r *UserDB) Upsert(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	row := userRow{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
		ExperienceLevel: string(model.LevelBeginner),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "profile_image_url", "updated_at",
		}),
	}).Create(&row).Error
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
	var row userRow
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).Take(&row).Error; err != nil {
		return nil, dbError("getting user by "+column, err, "user", value)
	}
	u := row.toModel()
	return &u, nil
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
	var rows []userRow
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, dbError("listing users", err, "user", "")
	}
	return collect(rows, userRow.toModel), nil
}

// Update writes the profile columns and reloads the row.
func (r *UserDB) Update(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ExperienceLevel == "" {
		user.ExperienceLevel = model.LevelBeginner
	}

	res := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", user.ID).Updates(map[string]any{
		"email":             user.Email,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"profile_image_url": user.ProfileImageURL,
		"username":          user.Username,
		"bio":               user.Bio,
		"experience_level":  string(user.ExperienceLevel),
		"updated_at":        time.Now().UTC(),
	})
	if err := notFoundIfNone(res, "updating user", "user", user.ID); err != nil {
		return err
	}

	stored, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// Delete cascades to skills and grants and is refused while the user still
// authors content or takes part in ratings.
func (r *UserDB) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRow{})
	if res.Error != nil {
		return deleteError("deleting user", res.Error, "user", id)
	}
	return notFoundIfNone(res, "deleting user", "user", id)
}

const recomputeSQL = `
	UPDATE users SET
		total_taught   = (SELECT COUNT(*) FROM content WHERE content.author_id = users.id),
		total_learned  = (SELECT COUNT(*) FROM user_skills
		                   WHERE user_skills.user_id = users.id AND user_skills.wants_to_learn),
		total_ratings  = (SELECT COUNT(*) FROM ratings WHERE ratings.rated_user_id = users.id),
		average_rating = COALESCE((SELECT AVG(rating)::double precision FROM ratings
		                            WHERE ratings.rated_user_id = users.id), 0),
		updated_at     = ?`

func (r *UserDB) RecomputeAggregates(ctx context.Context, id string) (*model.User, error) {
	res := r.db.WithContext(ctx).Exec(recomputeSQL+` WHERE id = ?`, time.Now().UTC(), id)
	if err := notFoundIfNone(res, "recomputing aggregates", "user", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserDB) RecomputeAllAggregates(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(recomputeSQL, time.Now().UTC())
	if res.Error != nil {
		return 0, dbError("recomputing all aggregates", res.Error, "user", "")
	}
	return res.RowsAffected, nil
}

// bumpUser applies an atomic counter change to one user inside tx.
func bumpUser(tx *gorm.DB, userID string, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := tx.Model(&userRow{}).Where("id = ?", userID).Updates(updates)
	return notFoundIfNone(res, "updating user aggregates", "user", userID)
}

// withTx runs fn in a transaction. Errors from fn are already mapped; a
// failing COMMIT is mapped here.
func withTx(ctx context.Context, db *gorm.DB, op string, fn func(tx *gorm.DB) error) error {
	return dbError(op, db.WithContext(ctx).Transaction(fn), "", "")
}
