package postgres

// schema is applied in order by Migrate. Every statement is idempotent.
//
// Deletion policy:
//   - content, ratings → users:        RESTRICT
//   - ratings.content_id → content:    SET NULL
//   - user_skills, oauth → users:      CASCADE
//   - content, user_skills → skills:   RESTRICT
var schema = []struct {
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
			username          VARCHAR(80) UNIQUE,
			bio               TEXT NOT NULL DEFAULT '',
			experience_level  TEXT NOT NULL DEFAULT 'beginner'
			                  CHECK (experience_level IN ('beginner', 'intermediate', 'advanced')),
			total_taught      INTEGER NOT NULL DEFAULT 0 CHECK (total_taught >= 0),
			total_learned     INTEGER NOT NULL DEFAULT 0 CHECK (total_learned >= 0),
			average_rating    DOUBLE PRECISION NOT NULL DEFAULT 0
			                  CHECK (average_rating >= 0 AND average_rating <= 5),
			total_ratings     INTEGER NOT NULL DEFAULT 0 CHECK (total_ratings >= 0),
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{"oauth", `
		CREATE TABLE IF NOT EXISTS oauth (
			id                  TEXT PRIMARY KEY,
			provider            VARCHAR(50) NOT NULL,
			token               BYTEA NOT NULL,
			user_id             TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			browser_session_key TEXT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT oauth_user_id_browser_session_key_provider_key
				UNIQUE (user_id, browser_session_key, provider)
		)`},
	{"oauth index", `CREATE INDEX IF NOT EXISTS idx_oauth_user_id ON oauth(user_id)`},
	{"skills", `
		CREATE TABLE IF NOT EXISTS skills (
			id          BIGSERIAL PRIMARY KEY,
			name        VARCHAR(100) NOT NULL UNIQUE CHECK (length(name) > 0),
			category    VARCHAR(50)  NOT NULL CHECK (length(category) > 0),
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{"skills index", `CREATE INDEX IF NOT EXISTS idx_skills_category ON skills(category)`},
	{"content", `
		CREATE TABLE IF NOT EXISTS content (
			id           BIGSERIAL PRIMARY KEY,
			title        VARCHAR(200) NOT NULL CHECK (length(title) > 0),
			description  TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL CHECK (content_type IN ('text', 'video', 'audio', 'image', 'file')),
			content_data TEXT,
			file_path    VARCHAR(255),
			file_name    VARCHAR(255),
			file_size    BIGINT CHECK (file_size IS NULL OR file_size >= 0),
			views        BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0),
			likes        BIGINT NOT NULL DEFAULT 0 CHECK (likes >= 0),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			author_id    TEXT   NOT NULL REFERENCES users(id)  ON DELETE RESTRICT,
			skill_id     BIGINT NOT NULL REFERENCES skills(id) ON DELETE RESTRICT,
			CONSTRAINT content_payload_check CHECK (
				(content_type = 'text'
					AND content_data IS NOT NULL
					AND file_path IS NULL AND file_name IS NULL AND file_size IS NULL)
				OR
				(content_type <> 'text'
					AND content_data IS NULL
					AND file_path IS NOT NULL AND file_name IS NOT NULL AND file_size IS NOT NULL)
			)
		)`},
	{"content indexes", `
		CREATE INDEX IF NOT EXISTS idx_content_author_id ON content(author_id);
		CREATE INDEX IF NOT EXISTS idx_content_skill_id ON content(skill_id)`},
	{"ratings", `
		CREATE TABLE IF NOT EXISTS ratings (
			id            BIGSERIAL PRIMARY KEY,
			rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment       TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			rater_id      TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			rated_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			content_id    BIGINT REFERENCES content(id) ON DELETE SET NULL,
			CONSTRAINT ratings_not_self_check CHECK (rater_id <> rated_user_id),
			CONSTRAINT ratings_rater_id_rated_user_id_content_id_key
				UNIQUE (rater_id, rated_user_id, content_id)
		)`},
	{"ratings indexes", `
		CREATE INDEX IF NOT EXISTS idx_ratings_rated_user_id ON ratings(rated_user_id);
		CREATE INDEX IF NOT EXISTS idx_ratings_content_id ON ratings(content_id)`},
	{"user_skills", `
		CREATE TABLE IF NOT EXISTS user_skills (
			id             BIGSERIAL PRIMARY KEY,
			skill_level    TEXT NOT NULL CHECK (skill_level IN ('beginner', 'intermediate', 'advanced')),
			can_teach      BOOLEAN NOT NULL DEFAULT false,
			wants_to_learn BOOLEAN NOT NULL DEFAULT false,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			user_id        TEXT   NOT NULL REFERENCES users(id)  ON DELETE CASCADE,
			skill_id       BIGINT NOT NULL REFERENCES skills(id) ON DELETE RESTRICT,
			CONSTRAINT user_skills_user_id_skill_id_key UNIQUE (user_id, skill_id),
			CONSTRAINT user_skills_flag_check CHECK (can_teach OR wants_to_learn)
		)`},
	{"user_skills index", `CREATE INDEX IF NOT EXISTS idx_user_skills_skill_id ON user_skills(skill_id)`},
}
