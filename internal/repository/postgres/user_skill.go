package postgres

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// UserSkillDB is the user_skills join table. Rows that want to learn are
// counted in users.total_learned.
type UserSkillDB struct {
	db *gorm.DB
}

var _ repository.UserSkillRepository = (*UserSkillDB)(nil)

func learnDelta(before, after bool) int {
	switch {
	case !before && after:
		return 1
	case before && !after:
		return -1
	}
	return 0
}

func adjustLearned(tx *gorm.DB, userID string, delta int) error {
	if delta == 0 {
		return nil
	}
	return bumpUser(tx, userID, map[string]any{
		"total_learned": gorm.Expr("GREATEST(total_learned + ?, 0)", delta),
	})
}

func (r *UserSkillDB) Create(ctx context.Context, us *model.UserSkill) error {
	if err := us.Validate(); err != nil {
		return err
	}
	us.CreatedAt = time.Now().UTC()

	return withTx(ctx, r.db, "creating user skill", func(tx *gorm.DB) error {
		row := userSkillRow{
			SkillLevel:   string(us.SkillLevel),
			CanTeach:     us.CanTeach,
			WantsToLearn: us.WantsToLearn,
			CreatedAt:    us.CreatedAt,
			UserID:       us.UserID,
			SkillID:      us.SkillID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbError("creating user skill", err, "user skill", "")
		}
		us.ID = row.ID

		return adjustLearned(tx, us.UserID, learnDelta(false, us.WantsToLearn))
	})
}

func (r *UserSkillDB) GetByID(ctx context.Context, id int64) (*model.UserSkill, error) {
	var row userSkillRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, dbError("getting user skill", err, "user skill", strconv.FormatInt(id, 10))
	}
	us := row.toModel()
	return &us, nil
}

func (r *UserSkillDB) List(ctx context.Context, filter repository.UserSkillFilter) ([]model.UserSkill, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.WithContext(ctx).Model(&userSkillRow{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.SkillID != 0 {
		q = q.Where("skill_id = ?", filter.SkillID)
	}
	if filter.CanTeach != nil {
		q = q.Where("can_teach = ?", *filter.CanTeach)
	}
	if filter.WantsToLearn != nil {
		q = q.Where("wants_to_learn = ?", *filter.WantsToLearn)
	}
	var rows []userSkillRow
	err := q.Order("created_at").Order("id").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, dbError("listing user skills", err, "user skill", "")
	}
	return collect(rows, userSkillRow.toModel), nil
}

// Update changes level and flags. The old row is locked so total_learned
// moves by exactly the change even under concurrent updates.
func (r *UserSkillDB) Update(ctx context.Context, us *model.UserSkill) error {
	if err := us.Validate(); err != nil {
		return err
	}
	id := strconv.FormatInt(us.ID, 10)

	return withTx(ctx, r.db, "updating user skill", func(tx *gorm.DB) error {
		var old userSkillRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", us.ID).
			Take(&old).Error
		if err != nil {
			return dbError("updating user skill", err, "user skill", id)
		}

		err = tx.Model(&userSkillRow{}).Where("id = ?", us.ID).Updates(map[string]any{
			"skill_level":    string(us.SkillLevel),
			"can_teach":      us.CanTeach,
			"wants_to_learn": us.WantsToLearn,
		}).Error
		if err != nil {
			return dbError("updating user skill", err, "user skill", id)
		}
		us.UserID, us.SkillID, us.CreatedAt = old.UserID, old.SkillID, old.CreatedAt

		return adjustLearned(tx, old.UserID, learnDelta(old.WantsToLearn, us.WantsToLearn))
	})
}

func (r *UserSkillDB) Delete(ctx context.Context, id int64) error {
	sid := strconv.FormatInt(id, 10)
	return withTx(ctx, r.db, "deleting user skill", func(tx *gorm.DB) error {
		var row userSkillRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&row).Error
		if err != nil {
			return dbError("deleting user skill", err, "user skill", sid)
		}
		if err := tx.Where("id = ?", id).Delete(&userSkillRow{}).Error; err != nil {
			return deleteError("deleting user skill", err, "user skill", sid)
		}
		return adjustLearned(tx, row.UserID, learnDelta(row.WantsToLearn, false))
	})
}
