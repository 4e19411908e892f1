package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// SkillDB is the skill catalog.
type SkillDB struct {
	db *DB
}

var _ repository.SkillRepository = (*SkillDB)(nil)

const skillColumns = `id, name, category, description, created_at`

func scanSkill(row rowScanner) (*model.Skill, error) {
	var s model.Skill
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SkillDB) Create(ctx context.Context, skill *model.Skill) error {
	if err := skill.Validate(); err != nil {
		return err
	}
	skill.CreatedAt = time.Now().UTC()

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO skills (name, category, description, created_at) VALUES (?, ?, ?, ?)`,
		skill.Name, skill.Category, skill.Description, skill.CreatedAt)
	if err != nil {
		return dbError("creating skill", err, "skill", skill.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading skill id: %w", err)
	}
	skill.ID = id
	return nil
}

func (r *SkillDB) GetByID(ctx context.Context, id int64) (*model.Skill, error) {
	s, err := scanSkill(r.db.conn.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = ?`, id))
	if err != nil {
		return nil, dbError("getting skill", err, "skill", strconv.FormatInt(id, 10))
	}
	return s, nil
}

func (r *SkillDB) GetByName(ctx context.Context, name string) (*model.Skill, error) {
	s, err := scanSkill(r.db.conn.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE name = ?`, name))
	if err != nil {
		return nil, dbError("getting skill by name", err, "skill", name)
	}
	return s, nil
}

func (r *SkillDB) List(ctx context.Context, filter repository.SkillFilter) ([]model.Skill, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.sb.Select(skillColumns).From("skills")
	if filter.Category != "" {
		q = q.Where(sqrl.Eq{"category": filter.Category})
	}
	query, args, err := q.OrderBy("name").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building skill list query: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing skills", err, "skill", "")
	}
	defer rows.Close()

	skills := make([]model.Skill, 0, opts.Limit)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill row: %w", err)
		}
		skills = append(skills, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skills: %w", err)
	}
	return skills, nil
}

// Delete refuses skills still used by content or user skills.
func (r *SkillDB) Delete(ctx context.Context, id int64) error {
	sid := strconv.FormatInt(id, 10)
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return deleteError("deleting skill", err, "skill", sid)
	}
	return rowsAffected(res, "skill", sid)
}
