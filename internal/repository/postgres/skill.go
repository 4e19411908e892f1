package postgres

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

type SkillDB struct {
	db *gorm.DB
}

var _ repository.SkillRepository = (*SkillDB)(nil)

func (r *SkillDB) Create(ctx context.Context, skill *model.Skill) error {
	if err := skill.Validate(); err != nil {
		return err
	}
	skill.CreatedAt = time.Now().UTC()

	row := skillRow{
		Name:        skill.Name,
		Category:    skill.Category,
		Description: skill.Description,
		CreatedAt:   skill.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return dbError("creating skill", err, "skill", skill.Name)
	}
	skill.ID = row.ID
	return nil
}

func (r *SkillDB) get(ctx context.Context, op, column string, value any, id string) (*model.Skill, error) {
	var row skillRow
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).Take(&row).Error; err != nil {
		return nil, dbError(op, err, "skill", id)
	}
	s := row.toModel()
	return &s, nil
}

func (r *SkillDB) GetByID(ctx context.Context, id int64) (*model.Skill, error) {
	return r.get(ctx, "getting skill", "id", id, strconv.FormatInt(id, 10))
}

func (r *SkillDB) GetByName(ctx context.Context, name string) (*model.Skill, error) {
	return r.get(ctx, "getting skill by name", "name", name, name)
}

func (r *SkillDB) List(ctx context.Context, filter repository.SkillFilter) ([]model.Skill, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.WithContext(ctx).Model(&skillRow{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	var rows []skillRow
	if err := q.Order("name").Limit(opts.Limit).Offset(opts.Offset).Find(&rows).Error; err != nil {
		return nil, dbError("listing skills", err, "skill", "")
	}
	return collect(rows, skillRow.toModel), nil
}

// Delete refuses skills still used by content or user skills.
func (r *SkillDB) Delete(ctx context.Context, id int64) error {
	sid := strconv.FormatInt(id, 10)
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&skillRow{})
	if res.Error != nil {
		return deleteError("deleting skill", res.Error, "skill", sid)
	}
	return notFoundIfNone(res, "deleting skill", "skill", sid)
}
