package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// OAuthDB is the oauth table: one sealed token per (user, session, provider).
type OAuthDB struct {
	db *DB
}

var _ repository.OAuthRepository = (*OAuthDB)(nil)

const oauthColumns = `id, provider, token, user_id, browser_session_key, created_at, updated_at`

func scanCredential(row rowScanner) (*model.OAuthCredential, error) {
	var c model.OAuthCredential
	if err := row.Scan(&c.ID, &c.Provider, &c.Token, &c.UserID, &c.BrowserSessionKey,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert relies on the UNIQUE(user_id, browser_session_key, provider)
// constraint: concurrent logins for the same key collapse into one row and
// the last writer's token wins. The surviving row is read back to fill in
// its id and created_at.
func (r *OAuthDB) Upsert(ctx context.Context, cred *model.OAuthCredential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO oauth (id, provider, token, user_id, browser_session_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, browser_session_key, provider) DO UPDATE SET
		     token      = excluded.token,
		     updated_at = excluded.updated_at`,
		xid.New().String(), cred.Provider, cred.Token, cred.UserID, cred.BrowserSessionKey, now, now,
	)
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
	c, err := scanCredential(r.db.conn.QueryRowContext(ctx,
		`SELECT `+oauthColumns+` FROM oauth
		 WHERE user_id = ? AND browser_session_key = ? AND provider = ?`,
		key.UserID, key.BrowserSessionKey, key.Provider))
	if err != nil {
		return nil, dbError("getting oauth credential", err, "oauth credential", key.String())
	}
	return c, nil
}

func (r *OAuthDB) ListByUser(ctx context.Context, userID string) ([]model.OAuthCredential, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+oauthColumns+` FROM oauth WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, dbError("listing oauth credentials", err, "oauth credential", userID)
	}
	defer rows.Close()

	var creds []model.OAuthCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning oauth row: %w", err)
		}
		creds = append(creds, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating oauth credentials: %w", err)
	}
	return creds, nil
}

func (r *OAuthDB) UpdateToken(ctx context.Context, key model.OAuthKey, token []byte) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE oauth SET token = ?, updated_at = ?
		 WHERE user_id = ? AND browser_session_key = ? AND provider = ?`,
		token, time.Now().UTC(), key.UserID, key.BrowserSessionKey, key.Provider)
	if err != nil {
		return dbError("updating oauth token", err, "oauth credential", key.String())
	}
	return rowsAffected(res, "oauth credential", key.String())
}

func (r *OAuthDB) Delete(ctx context.Context, key model.OAuthKey) error {
	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM oauth WHERE user_id = ? AND browser_session_key = ? AND provider = ?`,
		key.UserID, key.BrowserSessionKey, key.Provider)
	if err != nil {
		return deleteError("deleting oauth credential", err, "oauth credential", key.String())
	}
	return rowsAffected(res, "oauth credential", key.String())
}
