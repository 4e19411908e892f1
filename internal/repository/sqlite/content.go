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

// ContentDB is the content table. Writes that create or remove a row also
// move the author's total_taught in the same transaction.
type ContentDB struct {
	db *DB
}

var _ repository.ContentRepository = (*ContentDB)(nil)

const contentColumns = `id, title, description, content_type, content_data, file_path, file_name,
	file_size, views, likes, created_at, updated_at, author_id, skill_id`

func scanContent(row rowScanner) (*model.Content, error) {
	var c model.Content
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.ContentType, &c.ContentData, &c.FilePath, &c.FileName,
		&c.FileSize, &c.Views, &c.Likes, &c.CreatedAt, &c.UpdatedAt, &c.AuthorID, &c.SkillID,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContentDB) Create(ctx context.Context, content *model.Content) error {
	if err := content.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	content.CreatedAt = now
	content.UpdatedAt = now
	content.Views, content.Likes = 0, 0

	return r.db.withTx(ctx, "creating content", func(q querier) error {
		res, err := q.ExecContext(ctx,
			`INSERT INTO content (title, description, content_type, content_data, file_path, file_name,
			                      file_size, created_at, updated_at, author_id, skill_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			content.Title, content.Description, content.ContentType, content.ContentData,
			content.FilePath, content.FileName, content.FileSize,
			content.CreatedAt, content.UpdatedAt, content.AuthorID, content.SkillID,
		)
		if err != nil {
			return dbError("creating content", err, "content", "")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading content id: %w", err)
		}
		content.ID = id

		return bumpUser(ctx, q, content.AuthorID, `total_taught = total_taught + 1`)
	})
}

func (r *ContentDB) GetByID(ctx context.Context, id int64) (*model.Content, error) {
	c, err := scanContent(r.db.conn.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content WHERE id = ?`, id))
	if err != nil {
		return nil, dbError("getting content", err, "content", strconv.FormatInt(id, 10))
	}
	return c, nil
}

func (r *ContentDB) List(ctx context.Context, filter repository.ContentFilter) ([]model.Content, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.sb.Select(contentColumns).From("content")
	if filter.AuthorID != "" {
		q = q.Where(sqrl.Eq{"author_id": filter.AuthorID})
	}
	if filter.SkillID != 0 {
		q = q.Where(sqrl.Eq{"skill_id": filter.SkillID})
	}
	if filter.ContentType != "" {
		q = q.Where(sqrl.Eq{"content_type": string(filter.ContentType)})
	}
	query, args, err := q.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building content list query: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing content", err, "content", "")
	}
	defer rows.Close()

	items := make([]model.Content, 0, opts.Limit)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning content row: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating content: %w", err)
	}
	return items, nil
}

func (r *ContentDB) Update(ctx context.Context, content *model.Content) error {
	if err := content.Validate(); err != nil {
		return err
	}
	cid := strconv.FormatInt(content.ID, 10)
	content.UpdatedAt = time.Now().UTC()

	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE content
		 SET title = ?, description = ?, content_type = ?, content_data = ?,
		     file_path = ?, file_name = ?, file_size = ?, updated_at = ?
		 WHERE id = ?`,
		content.Title, content.Description, content.ContentType, content.ContentData,
		content.FilePath, content.FileName, content.FileSize, content.UpdatedAt,
		content.ID,
	)
	if err != nil {
		return dbError("updating content", err, "content", cid)
	}
	return rowsAffected(res, "content", cid)
}

// Delete removes the row, un-counts it from the author and lets the
// ON DELETE SET NULL foreign key detach its ratings.
func (r *ContentDB) Delete(ctx context.Context, id int64) error {
	cid := strconv.FormatInt(id, 10)
	return r.db.withTx(ctx, "deleting content", func(q querier) error {
		var authorID string
		err := q.QueryRowContext(ctx,
			`DELETE FROM content WHERE id = ? RETURNING author_id`, id,
		).Scan(&authorID)
		if err != nil {
			return deleteError("deleting content", err, "content", cid)
		}
		return bumpUser(ctx, q, authorID, `total_taught = MAX(total_taught - 1, 0)`)
	})
}

// counter runs a single-statement counter update and returns the new value.
func (r *ContentDB) counter(ctx context.Context, op string, id int64, setClause, column string) (int64, error) {
	var n int64
	err := r.db.conn.QueryRowContext(ctx,
		`UPDATE content SET `+setClause+` WHERE id = ? RETURNING `+column, id,
	).Scan(&n)
	if err != nil {
		return 0, dbError(op, err, "content", strconv.FormatInt(id, 10))
	}
	return n, nil
}

func (r *ContentDB) IncrementViews(ctx context.Context, id int64) (int64, error) {
	return r.counter(ctx, "recording view", id, `views = views + 1`, "views")
}

func (r *ContentDB) Like(ctx context.Context, id int64) (int64, error) {
	return r.counter(ctx, "liking content", id, `likes = likes + 1`, "likes")
}

func (r *ContentDB) Unlike(ctx context.Context, id int64) (int64, error) {
	return r.counter(ctx, "unliking content", id, `likes = MAX(likes - 1, 0)`, "likes")
}
