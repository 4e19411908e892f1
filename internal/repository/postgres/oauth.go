package postgres

import (
	"context"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

type OAuthDB struct {
	db *gorm.DB
}

var _ repository.OAuthRepository = (*OAuthDB)(nil)

func byKey(db *gorm.DB, key model.OAuthKey) *gorm.DB {
	return db.Where("user_id = ? AND browser_session_key = ? AND provider = ?",
		key.UserID, key.BrowserSessionKey, key.Provider)
}

// Upsert collapses concurrent logins for the same key into one row; the
// last token written wins.
func (r *OAuthDB) Upsert(ctx context.Context, cred *model.OAuthCredential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	row := oauthRow{
		ID:                xid.New().String(),
		Provider:          cred.Provider,
		Token:             cred.Token,
		UserID:            cred.UserID,
		BrowserSessionKey: cred.BrowserSessionKey,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "browser_session_key"}, {Name: "provider"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return dbError("upserting oauth credential", err, "oauth credential", cred.Key().String())
	}

	stored, err := r.Get(ctx, cred.Key())
	if err != nil {
		return err
	}
	cred.ID, cred.CreatedAt, cred.UpdatedAt = stored.ID, stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (r *OAuthDB) Get(ctx context.Context, key model.OAuthKey) (*model.OAuthCredential, error) {
	var row oauthRow
	if err := byKey(r.db.WithContext(ctx), key).Take(&row).Error; err != nil {
		return nil, dbError("getting oauth credential", err, "oauth credential", key.String())
	}
	c := row.toModel()
	return &c, nil
}

func (r *OAuthDB) ListByUser(ctx context.Context, userID string) ([]model.OAuthCredential, error) {
	var rows []oauthRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, dbError("listing oauth credentials", err, "oauth credential", userID)
	}
	return collect(rows, oauthRow.toModel), nil
}

func (r *OAuthDB) UpdateToken(ctx context.Context, key model.OAuthKey, token []byte) error {
	res := byKey(r.db.WithContext(ctx).Model(&oauthRow{}), key).Updates(map[string]any{
		"token":      token,
		"updated_at": time.Now().UTC(),
	})
	return notFoundIfNone(res, "updating oauth token", "oauth credential", key.String())
}

func (r *OAuthDB) Delete(ctx context.Context, key model.OAuthKey) error {
	res := byKey(r.db.WithContext(ctx), key).Delete(&oauthRow{})
	return notFoundIfNone(res, "deleting oauth credential", "oauth credential", key.String())
}
