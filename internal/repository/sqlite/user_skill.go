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

// UserSkillDB is the user_skills join table. Rows that want to learn are
// counted in users.total_learned.
type UserSkillDB struct {
	db *DB
}

var _ repository.UserSkillRepository = (*UserSkillDB)(nil)

const userSkillColumns = `id, skill_level, can_teach, wants_to_learn, created_at, user_id, skill_id`

func scanUserSkill(row rowScanner) (*model.UserSkill, error) {
	var us model.UserSkill
	if err := row.Scan(&us.ID, &us.SkillLevel, &us.CanTeach, &us.WantsToLearn, &us.CreatedAt,
		&us.UserID, &us.SkillID); err != nil {
		return nil, err
	}
	return &us, nil
}

func learnDelta(before, after bool) int {
	switch {
	case !before && after:
		return 1
	case before && !after:
		return -1
	}
	return 0
}

func adjustLearned(ctx context.Context, q querier, userID string, delta int) error {
	if delta == 0 {
		return nil
	}
	return bumpUser(ctx, q, userID, `total_learned = MAX(total_learned + ?, 0)`, delta)
}

func (r *UserSkillDB) Create(ctx context.Context, us *model.UserSkill) error {
	if err := us.Validate(); err != nil {
		return err
	}
	us.CreatedAt = time.Now().UTC()

	return r.db.withTx(ctx, "creating user skill", func(q querier) error {
		res, err := q.ExecContext(ctx,
			`INSERT INTO user_skills (skill_level, can_teach, wants_to_learn, created_at, user_id, skill_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			us.SkillLevel, us.CanTeach, us.WantsToLearn, us.CreatedAt, us.UserID, us.SkillID,
		)
		if err != nil {
			return dbError("creating user skill", err, "user skill", "")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading user skill id: %w", err)
		}
		us.ID = id

		return adjustLearned(ctx, q, us.UserID, learnDelta(false, us.WantsToLearn))
	})
}

func (r *UserSkillDB) GetByID(ctx context.Context, id int64) (*model.UserSkill, error) {
	us, err := scanUserSkill(r.db.conn.QueryRowContext(ctx,
		`SELECT `+userSkillColumns+` FROM user_skills WHERE id = ?`, id))
	if err != nil {
		return nil, dbError("getting user skill", err, "user skill", strconv.FormatInt(id, 10))
	}
	return us, nil
}

func (r *UserSkillDB) List(ctx context.Context, filter repository.UserSkillFilter) ([]model.UserSkill, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.sb.Select(userSkillColumns).From("user_skills")
	if filter.UserID != "" {
		q = q.Where(sqrl.Eq{"user_id": filter.UserID})
	}
	if filter.SkillID != 0 {
		q = q.Where(sqrl.Eq{"skill_id": filter.SkillID})
	}
	if filter.CanTeach != nil {
		q = q.Where(sqrl.Eq{"can_teach": *filter.CanTeach})
	}
	if filter.WantsToLearn != nil {
		q = q.Where(sqrl.Eq{"wants_to_learn": *filter.WantsToLearn})
	}
	query, args, err := q.OrderBy("created_at", "id").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building user skill list query: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing user skills", err, "user skill", "")
	}
	defer rows.Close()

	items := make([]model.UserSkill, 0, opts.Limit)
	for rows.Next() {
		us, err := scanUserSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user skill row: %w", err)
		}
		items = append(items, *us)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user skills: %w", err)
	}
	return items, nil
}

// Update changes level and flags. The previous wants_to_learn is read in the
// same transaction so total_learned moves by exactly the change.
func (r *UserSkillDB) Update(ctx context.Context, us *model.UserSkill) error {
	if err := us.Validate(); err != nil {
		return err
	}
	id := strconv.FormatInt(us.ID, 10)

	return r.db.withTx(ctx, "updating user skill", func(q querier) error {
		var userID string
		var wanted bool
		err := q.QueryRowContext(ctx,
			`SELECT user_id, wants_to_learn FROM user_skills WHERE id = ?`, us.ID,
		).Scan(&userID, &wanted)
		if err != nil {
			return dbError("updating user skill", err, "user skill", id)
		}

		if _, err := q.ExecContext(ctx,
			`UPDATE user_skills SET skill_level = ?, can_teach = ?, wants_to_learn = ? WHERE id = ?`,
			us.SkillLevel, us.CanTeach, us.WantsToLearn, us.ID,
		); err != nil {
			return dbError("updating user skill", err, "user skill", id)
		}
		us.UserID = userID

		return adjustLearned(ctx, q, userID, learnDelta(wanted, us.WantsToLearn))
	})
}

func (r *UserSkillDB) Delete(ctx context.Context, id int64) error {
	sid := strconv.FormatInt(id, 10)
	return r.db.withTx(ctx, "deleting user skill", func(q querier) error {
		var userID string
		var wanted bool
		err := q.QueryRowContext(ctx,
			`DELETE FROM user_skills WHERE id = ? RETURNING user_id, wants_to_learn`, id,
		).Scan(&userID, &wanted)
		if err != nil {
			return deleteError("deleting user skill", err, "user skill", sid)
		}
		return adjustLearned(ctx, q, userID, learnDelta(wanted, false))
	})
}
