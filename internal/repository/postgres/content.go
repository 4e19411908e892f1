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

// ContentDB is the content table. Creating or removing a row moves the
// author's total_taught in the same transaction.
type ContentDB struct {
	db *gorm.DB
}

var _ repository.ContentRepository = (*ContentDB)(nil)

func (r *ContentDB) Create(ctx context.Context, content *model.Content) error {
	if err := content.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	content.CreatedAt, content.UpdatedAt = now, now
	content.Views, content.Likes = 0, 0

	return withTx(ctx, r.db, "creating content", func(tx *gorm.DB) error {
		row := newContentRow(content)
		row.ID = 0
		if err := tx.Create(&row).Error; err != nil {
			return dbError("creating content", err, "content", "")
		}
		content.ID = row.ID

		return bumpUser(tx, content.AuthorID, map[string]any{
			"total_taught": gorm.Expr("total_taught + 1"),
		})
	})
}

func (r *ContentDB) GetByID(ctx context.Context, id int64) (*model.Content, error) {
	var row contentRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, dbError("getting content", err, "content", strconv.FormatInt(id, 10))
	}
	c := row.toModel()
	return &c, nil
}

func (r *ContentDB) List(ctx context.Context, filter repository.ContentFilter) ([]model.Content, error) {
	opts := filter.ListOptions.Normalize()
	q := r.db.WithContext(ctx).Model(&contentRow{})
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.SkillID != 0 {
		q = q.Where("skill_id = ?", filter.SkillID)
	}
	if filter.ContentType != "" {
		q = q.Where("content_type = ?", string(filter.ContentType))
	}
	var rows []contentRow
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(opts.Limit).Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, dbError("listing content", err, "content", "")
	}
	return collect(rows, contentRow.toModel), nil
}

// Update rewrites the title and payload. Author and skill never change.
func (r *ContentDB) Update(ctx context.Context, content *model.Content) error {
	if err := content.Validate(); err != nil {
		return err
	}
	content.UpdatedAt = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&contentRow{}).Where("id = ?", content.ID).Updates(map[string]any{
		"title":        content.Title,
		"description":  content.Description,
		"content_type": string(content.ContentType),
		"content_data": content.ContentData,
		"file_path":    content.FilePath,
		"file_name":    content.FileName,
		"file_size":    content.FileSize,
		"updated_at":   content.UpdatedAt,
	})
	return notFoundIfNone(res, "updating content", "content", strconv.FormatInt(content.ID, 10))
}

// Delete removes the row and un-counts it from the author. Ratings on it
// are detached by ON DELETE SET NULL.
func (r *ContentDB) Delete(ctx context.Context, id int64) error {
	cid := strconv.FormatInt(id, 10)
	return withTx(ctx, r.db, "deleting content", func(tx *gorm.DB) error {
		var row contentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "author_id").
			Where("id = ?", id).
			Take(&row).Error
		if err != nil {
			return dbError("deleting content", err, "content", cid)
		}

		if err := tx.Where("id = ?", id).Delete(&contentRow{}).Error; err != nil {
			return deleteError("deleting content", err, "content", cid)
		}

		return bumpUser(tx, row.AuthorID, map[string]any{
			"total_taught": gorm.Expr("GREATEST(total_taught - 1, 0)"),
		})
	})
}

// counter runs a single-statement counter update and returns the new value.
func (r *ContentDB) counter(ctx context.Context, op string, id int64, setClause, column string) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Raw(`UPDATE content SET `+setClause+` WHERE id = ? RETURNING `+column, id).
		Scan(&n)
	if err := notFoundIfNone(res, op, "content", strconv.FormatInt(id, 10)); err != nil {
		return 0, err
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
	return r.counter(ctx, "unliking content", id, `likes = GREATEST(likes - 1, 0)`, "likes")
}
