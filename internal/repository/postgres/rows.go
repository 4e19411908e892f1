package postgres

import (
	"time"

	"github.com/sakif/skill-sangam/internal/model"
)

// Row types mirror the tables column for column. The model package stays
// free of gorm tags; these convert at the repository boundary.

type userRow struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Email           *string   `gorm:"column:email"`
	FirstName       string    `gorm:"column:first_name"`
	LastName        string    `gorm:"column:last_name"`
	ProfileImageURL string    `gorm:"column:profile_image_url"`
	Username        *string   `gorm:"column:username"`
	Bio             string    `gorm:"column:bio"`
	ExperienceLevel string    `gorm:"column:experience_level"`
	TotalTaught     int       `gorm:"column:total_taught"`
	TotalLearned    int       `gorm:"column:total_learned"`
	AverageRating   float64   `gorm:"column:average_rating"`
	TotalRatings    int       `gorm:"column:total_ratings"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (userRow) TableName() string { return "users" }

func newUserRow(u *model.User) userRow {
	return userRow{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		Username:        u.Username,
		Bio:             u.Bio,
		ExperienceLevel: string(u.ExperienceLevel),
		TotalTaught:     u.TotalTaught,
		TotalLearned:    u.TotalLearned,
		AverageRating:   u.AverageRating,
		TotalRatings:    u.TotalRatings,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:              r.ID,
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		ProfileImageURL: r.ProfileImageURL,
		Username:        r.Username,
		Bio:             r.Bio,
		ExperienceLevel: model.Level(r.ExperienceLevel),
		TotalTaught:     r.TotalTaught,
		TotalLearned:    r.TotalLearned,
		AverageRating:   r.AverageRating,
		TotalRatings:    r.TotalRatings,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type oauthRow struct {
	ID                string    `gorm:"column:id;primaryKey"`
	Provider          string    `gorm:"column:provider"`
	Token             []byte    `gorm:"column:token"`
	UserID            string    `gorm:"column:user_id"`
	BrowserSessionKey string    `gorm:"column:browser_session_key"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (oauthRow) TableName() string { return "oauth" }

func (r oauthRow) toModel() model.OAuthCredential {
	return model.OAuthCredential{
		ID:                r.ID,
		Provider:          r.Provider,
		Token:             r.Token,
		UserID:            r.UserID,
		BrowserSessionKey: r.BrowserSessionKey,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type skillRow struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Category    string    `gorm:"column:category"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (skillRow) TableName() string { return "skills" }

func (r skillRow) toModel() model.Skill {
	return model.Skill{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

type contentRow struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	ContentType string    `gorm:"column:content_type"`
	ContentData *string   `gorm:"column:content_data"`
	FilePath    *string   `gorm:"column:file_path"`
	FileName    *string   `gorm:"column:file_name"`
	FileSize    *int64    `gorm:"column:file_size"`
	Views       int64     `gorm:"column:views"`
	Likes       int64     `gorm:"column:likes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
	AuthorID    string    `gorm:"column:author_id"`
	SkillID     int64     `gorm:"column:skill_id"`
}

func (contentRow) TableName() string { return "content" }

func newContentRow(c *model.Content) contentRow {
	return contentRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		ContentType: string(c.ContentType),
		ContentData: c.ContentData,
		FilePath:    c.FilePath,
		FileName:    c.FileName,
		FileSize:    c.FileSize,
		Views:       c.Views,
		Likes:       c.Likes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		AuthorID:    c.AuthorID,
		SkillID:     c.SkillID,
	}
}

func (r contentRow) toModel() model.Content {
	return model.Content{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ContentType: model.ContentType(r.ContentType),
		ContentData: r.ContentData,
		FilePath:    r.FilePath,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		Views:       r.Views,
		Likes:       r.Likes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		AuthorID:    r.AuthorID,
		SkillID:     r.SkillID,
	}
}

type ratingRow struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Score       int       `gorm:"column:rating"`
	Comment     string    `gorm:"column:comment"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	RaterID     string    `gorm:"column:rater_id"`
	RatedUserID string    `gorm:"column:rated_user_id"`
	ContentID   *int64    `gorm:"column:content_id"`
}

func (ratingRow) TableName() string { return "ratings" }

func (r ratingRow) toModel() model.Rating {
	return model.Rating{
		ID:          r.ID,
		Score:       r.Score,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt,
		RaterID:     r.RaterID,
		RatedUserID: r.RatedUserID,
		ContentID:   r.ContentID,
	}
}

type userSkillRow struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	SkillLevel   string    `gorm:"column:skill_level"`
	CanTeach     bool      `gorm:"column:can_teach"`
	WantsToLearn bool      `gorm:"column:wants_to_learn"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UserID       string    `gorm:"column:user_id"`
	SkillID      int64     `gorm:"column:skill_id"`
}

func (userSkillRow) TableName() string { return "user_skills" }

func (r userSkillRow) toModel() model.UserSkill {
	return model.UserSkill{
		ID:           r.ID,
		SkillLevel:   model.Level(r.SkillLevel),
		CanTeach:     r.CanTeach,
		WantsToLearn: r.WantsToLearn,
		CreatedAt:    r.CreatedAt,
		UserID:       r.UserID,
		SkillID:      r.SkillID,
	}
}

// collect converts a slice of rows into models.
func collect[R any, M any](rows []R, conv func(R) M) []M {
	out := make([]M, 0, len(rows))
	for _, r := range rows {
		out = append(out, conv(r))
	}
	return out
}
