// Package sqlite implements the repository interfaces on an embedded SQLite
// database through database/sql and the pure-Go modernc.org/sqlite driver.
//
// CONNECTION MODEL:
// The pool is pinned to a single connection. SQLite allows one writer at a
// time anyway, and a single connection gives us two things for free:
//   - ":memory:" databases survive for the life of the *DB (each new
//     connection to ":memory:" would otherwise see an empty database)
//   - transactions from concurrent goroutines queue in database/sql instead
//     of failing with SQLITE_BUSY
//
// Per-connection PRAGMAs (foreign_keys, busy_timeout) travel in the DSN, so
// the driver applies them to every connection it opens, including one that
// database/sql opens to replace a broken one.
//
// The one rule that follows: inside withTx, only ever use the querier you
// were handed. Touching db.conn there would wait for the connection the
// transaction already holds.
//
// Dynamic list filters are built with squirrel; fixed statements are plain
// SQL strings.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const busyTimeoutMillis = 5000

// DB owns the connection pool and hands out one repository per entity.
type DB struct {
	conn *sql.DB
	sb   sqrl.StatementBuilderType
}

var _ repository.Store = (*DB)(nil)

// querier is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same helpers run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (creating if needed) the database at dbPath and migrates it.
//
// dbPath examples:
//   - "data/sangam.db"  → file-based database
//   - ":memory:"        → in-memory database, gone on Close
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// journal_mode is a property of the database file, so once is enough.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{
		conn: conn,
		sb:   sqrl.StatementBuilder.PlaceholderFormat(sqrl.Question),
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn adds the per-connection PRAGMAs and, on file databases, asks the
// driver for BEGIN IMMEDIATE so a writer takes the lock up front instead of
// upgrading mid-transaction.
func dsn(path string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeoutMillis),
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file::memory:") {
		params = append(params, "_txlock=immediate")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository           { return &UserDB{db: db} }
func (db *DB) OAuth() repository.OAuthRepository          { return &OAuthDB{db: db} }
func (db *DB) Skills() repository.SkillRepository         { return &SkillDB{db: db} }
func (db *DB) Content() repository.ContentRepository      { return &ContentDB{db: db} }
func (db *DB) Ratings() repository.RatingRepository       { return &RatingDB{db: db} }
func (db *DB) UserSkills() repository.UserSkillRepository { return &UserSkillDB{db: db} }

// withTx runs fn in a transaction, committing when fn returns nil.
func (db *DB) withTx(ctx context.Context, op string, fn func(q querier) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return dbError(op, err, "transaction", "")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return dbError(op, err, "transaction", "")
	}
	return nil
}

// migrate creates the schema. Every statement is idempotent.
//
// Deletion policy lives in the foreign keys:
//   - content, ratings → users:        RESTRICT (authors/raters must be removed deliberately)
//   - ratings.content_id → content:    SET NULL (the rating survives as a user rating)
//   - user_skills, oauth → users:      CASCADE
//   - content, user_skills → skills:   RESTRICT
func (db *DB) migrate() error {
	steps := []struct {
		name string
		ddl  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id                TEXT PRIMARY KEY,
				email             TEXT UNIQUE,
				first_name        TEXT NOT NULL DEFAULT '',
				last_name         TEXT NOT NULL DEFAULT '',
				profile_image_url TEXT NOT NULL DEFAULT '',
				username          TEXT UNIQUE CHECK (username IS NULL OR length(username) <= 80),
				bio               TEXT NOT NULL DEFAULT '',
				experience_level  TEXT NOT NULL DEFAULT 'beginner'
				                  CHECK (experience_level IN ('beginner', 'intermediate', 'advanced')),
				total_taught      INTEGER NOT NULL DEFAULT 0 CHECK (total_taught >= 0),
				total_learned     INTEGER NOT NULL DEFAULT 0 CHECK (total_learned >= 0),
				average_rating    REAL    NOT NULL DEFAULT 0 CHECK (average_rating >= 0 AND average_rating <= 5),
				total_ratings     INTEGER NOT NULL DEFAULT 0 CHECK (total_ratings >= 0),
				created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`},
		{"oauth", `
			CREATE TABLE IF NOT EXISTS oauth (
				id                  TEXT PRIMARY KEY,
				provider            TEXT NOT NULL CHECK (length(provider) BETWEEN 1 AND 50),
				token               BLOB NOT NULL,
				user_id             TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				browser_session_key TEXT NOT NULL,
				created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, browser_session_key, provider)
			);
			CREATE INDEX IF NOT EXISTS idx_oauth_user_id ON oauth(user_id);
		`},
		{"skills", `
			CREATE TABLE IF NOT EXISTS skills (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name        TEXT NOT NULL UNIQUE CHECK (length(name) BETWEEN 1 AND 100),
				category    TEXT NOT NULL CHECK (length(category) BETWEEN 1 AND 50),
				description TEXT NOT NULL DEFAULT '',
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_skills_category ON skills(category);
		`},
		{"content", `
			CREATE TABLE IF NOT EXISTS content (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				title        TEXT NOT NULL CHECK (length(title) BETWEEN 1 AND 200),
				description  TEXT NOT NULL DEFAULT '',
				content_type TEXT NOT NULL CHECK (content_type IN ('text', 'video', 'audio', 'image', 'file')),
				content_data TEXT,
				file_path    TEXT CHECK (file_path IS NULL OR length(file_path) <= 255),
				file_name    TEXT CHECK (file_name IS NULL OR length(file_name) <= 255),
				file_size    INTEGER CHECK (file_size IS NULL OR file_size >= 0),
				views        INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
				likes        INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_id    TEXT    NOT NULL REFERENCES users(id)  ON DELETE RESTRICT,
				skill_id     INTEGER NOT NULL REFERENCES skills(id) ON DELETE RESTRICT,
				CHECK (
					(content_type = 'text'
						AND content_data IS NOT NULL
						AND file_path IS NULL AND file_name IS NULL AND file_size IS NULL)
					OR
					(content_type <> 'text'
						AND content_data IS NULL
						AND file_path IS NOT NULL AND file_name IS NOT NULL AND file_size IS NOT NULL)
				)
			);
			CREATE INDEX IF NOT EXISTS idx_content_author_id ON content(author_id);
			CREATE INDEX IF NOT EXISTS idx_content_skill_id ON content(skill_id);
		`},
		{"ratings", `
			CREATE TABLE IF NOT EXISTS ratings (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				comment       TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				rater_id      TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				rated_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				content_id    INTEGER REFERENCES content(id) ON DELETE SET NULL,
				CHECK (rater_id <> rated_user_id),
				UNIQUE (rater_id, rated_user_id, content_id)
			);
			CREATE INDEX IF NOT EXISTS idx_ratings_rated_user_id ON ratings(rated_user_id);
			CREATE INDEX IF NOT EXISTS idx_ratings_content_id ON ratings(content_id);
		`},
		{"user_skills", `
			CREATE TABLE IF NOT EXISTS user_skills (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				skill_level    TEXT NOT NULL CHECK (skill_level IN ('beginner', 'intermediate', 'advanced')),
				can_teach      INTEGER NOT NULL DEFAULT 0 CHECK (can_teach IN (0, 1)),
				wants_to_learn INTEGER NOT NULL DEFAULT 0 CHECK (wants_to_learn IN (0, 1)),
				created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id        TEXT    NOT NULL REFERENCES users(id)  ON DELETE CASCADE,
				skill_id       INTEGER NOT NULL REFERENCES skills(id) ON DELETE RESTRICT,
				UNIQUE (user_id, skill_id),
				CHECK (can_teach = 1 OR wants_to_learn = 1)
			);
			CREATE INDEX IF NOT EXISTS idx_user_skills_skill_id ON user_skills(skill_id);
		`},
	}

	for _, s := range steps {
		if _, err := db.conn.Exec(s.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}

	return nil
}

// rowsAffected turns a zero-row UPDATE/DELETE into NotFound.
func rowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
