package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/sakif/skill-sangam/internal/apperror"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an *apperror.AppError", err)
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error %v is not a validation error", err)
	}
	return appErr.Field
}

// =========================================================================
// USER
// =========================================================================

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name      string
		user      User
		wantField string // "" means valid
	}{
		{name: "minimal user", user: User{ID: "u1"}},
		{name: "full profile", user: User{
			ID: "u1", Email: Ptr("a@example.com"), Username: Ptr("asha"),
			ExperienceLevel: LevelAdvanced,
		}},
		{name: "missing id", user: User{}, wantField: "id"},
		{name: "blank email", user: User{ID: "u1", Email: Ptr("  ")}, wantField: "email"},
		{name: "email without at", user: User{ID: "u1", Email: Ptr("nope")}, wantField: "email"},
		{name: "blank username", user: User{ID: "u1", Username: Ptr("")}, wantField: "username"},
		{name: "username too long", user: User{ID: "u1", Username: Ptr(strings.Repeat("x", MaxUsernameLength+1))}, wantField: "username"},
		{name: "username at limit", user: User{ID: "u1", Username: Ptr(strings.Repeat("x", MaxUsernameLength))}},
		{name: "unknown level", user: User{ID: "u1", ExperienceLevel: "guru"}, wantField: "experienceLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error on %q", tt.wantField)
			}
			if got := fieldOf(t, err); got != tt.wantField {
				t.Errorf("Field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	u := User{ID: "u1"}
	if got := u.DisplayName(); got != "u1" {
		t.Errorf("DisplayName() = %q, want id fallback", got)
	}
	u.Email = Ptr("a@example.com")
	if got := u.DisplayName(); got != "a@example.com" {
		t.Errorf("DisplayName() = %q, want email", got)
	}
	u.FirstName, u.LastName = "Asha", "Rao"
	if got := u.DisplayName(); got != "Asha Rao" {
		t.Errorf("DisplayName() = %q, want full name", got)
	}
	u.Username = Ptr("asha")
	if got := u.DisplayName(); got != "asha" {
		t.Errorf("DisplayName() = %q, want username", got)
	}
}

// =========================================================================
// CONTENT PAYLOAD
// =========================================================================

func TestContentValidate(t *testing.T) {
	base := func(ct ContentType) Content {
		return Content{Title: "Intro", ContentType: ct, AuthorID: "u1", SkillID: 1}
	}
	withText := func(c Content) Content { c.ContentData = Ptr("hello"); return c }
	withFile := func(c Content) Content {
		c.FilePath, c.FileName, c.FileSize = Ptr("/f/a.mp4"), Ptr("a.mp4"), Ptr(int64(10))
		return c
	}

	tests := []struct {
		name      string
		content   Content
		wantField string
	}{
		{name: "text with data", content: withText(base(ContentText))},
		{name: "video with file", content: withFile(base(ContentVideo))},
		{name: "zero byte file", content: func() Content {
			c := withFile(base(ContentFile))
			c.FileSize = Ptr(int64(0))
			return c
		}()},
		{name: "text without data", content: base(ContentText), wantField: "contentData"},
		{name: "text with blank data", content: func() Content {
			c := base(ContentText)
			c.ContentData = Ptr("  ")
			return c
		}(), wantField: "contentData"},
		{name: "text with file fields", content: withFile(withText(base(ContentText))), wantField: "filePath"},
		{name: "image without file", content: base(ContentImage), wantField: "filePath"},
		{name: "audio with inline data", content: withFile(withText(base(ContentAudio))), wantField: "contentData"},
		{name: "file missing name", content: func() Content {
			c := withFile(base(ContentFile))
			c.FileName = nil
			return c
		}(), wantField: "fileName"},
		{name: "negative size", content: func() Content {
			c := withFile(base(ContentVideo))
			c.FileSize = Ptr(int64(-1))
			return c
		}(), wantField: "fileSize"},
		{name: "unknown type", content: withText(base("slides")), wantField: "contentType"},
		{name: "missing title", content: func() Content {
			c := withText(base(ContentText))
			c.Title = " "
			return c
		}(), wantField: "title"},
		{name: "title too long", content: func() Content {
			c := withText(base(ContentText))
			c.Title = strings.Repeat("t", MaxTitleLength+1)
			return c
		}(), wantField: "title"},
		{name: "padded title too long", content: func() Content {
			c := withText(base(ContentText))
			c.Title = " " + strings.Repeat("t", MaxTitleLength)
			return c
		}(), wantField: "title"},
		{name: "missing skill", content: func() Content {
			c := withText(base(ContentText))
			c.SkillID = 0
			return c
		}(), wantField: "skillId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.content.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error on %q", tt.wantField)
			}
			if got := fieldOf(t, err); got != tt.wantField {
				t.Errorf("Field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

// =========================================================================
// RATING / USER SKILL / SKILL / OAUTH
// =========================================================================

func TestRatingValidate(t *testing.T) {
	for score := MinScore; score <= MaxScore; score++ {
		r := Rating{Score: score, RaterID: "a", RatedUserID: "b"}
		if err := r.Validate(); err != nil {
			t.Errorf("score %d: Validate() error = %v", score, err)
		}
	}

	bad := []Rating{
		{Score: 0, RaterID: "a", RatedUserID: "b"},
		{Score: 6, RaterID: "a", RatedUserID: "b"},
		{Score: 3, RaterID: "a", RatedUserID: "a"},
		{Score: 3, RaterID: "", RatedUserID: "b"},
		{Score: 3, RaterID: "a", RatedUserID: "b", ContentID: Ptr(int64(0))},
	}
	for _, r := range bad {
		if err := r.Validate(); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Validate(%+v) = %v, want ErrValidation", r, err)
		}
	}
}

func TestUserSkillValidate(t *testing.T) {
	ok := UserSkill{SkillLevel: LevelIntermediate, CanTeach: true, UserID: "u1", SkillID: 1}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	neither := ok
	neither.CanTeach = false
	if got := fieldOf(t, neither.Validate()); got != "canTeach" {
		t.Errorf("Field = %q, want canTeach", got)
	}

	badLevel := ok
	badLevel.SkillLevel = "expert"
	if got := fieldOf(t, badLevel.Validate()); got != "skillLevel" {
		t.Errorf("Field = %q, want skillLevel", got)
	}
}

func TestSkillValidate(t *testing.T) {
	if err := (&Skill{Name: "Python", Category: "Programming"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := fieldOf(t, (&Skill{Name: "Python"}).Validate()); got != "category" {
		t.Errorf("Field = %q, want category", got)
	}
	long := &Skill{Name: strings.Repeat("n", MaxSkillNameLength+1), Category: "x"}
	if got := fieldOf(t, long.Validate()); got != "name" {
		t.Errorf("Field = %q, want name", got)
	}
	padded := &Skill{Name: "Python ", Category: "Programming"}
	if got := fieldOf(t, padded.Validate()); got != "name" {
		t.Errorf("padded name: Field = %q, want name", got)
	}
	longCategory := &Skill{Name: "Go", Category: " " + strings.Repeat("c", MaxCategoryLength)}
	if got := fieldOf(t, longCategory.Validate()); got != "category" {
		t.Errorf("padded category: Field = %q, want category", got)
	}
}

func TestOAuthCredentialValidate(t *testing.T) {
	c := OAuthCredential{Provider: "github", UserID: "u1", BrowserSessionKey: "k", Token: []byte("sealed")}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Key() != (OAuthKey{UserID: "u1", BrowserSessionKey: "k", Provider: "github"}) {
		t.Errorf("Key() = %+v", c.Key())
	}

	noToken := c
	noToken.Token = nil
	if got := fieldOf(t, noToken.Validate()); got != "token" {
		t.Errorf("Field = %q, want token", got)
	}

	noSession := c
	noSession.BrowserSessionKey = ""
	if got := fieldOf(t, noSession.Validate()); got != "browserSessionKey" {
		t.Errorf("Field = %q, want browserSessionKey", got)
	}
}
