package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestContentCreate_BumpsTotalTaught(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "author")
	skill := createTestSkill(t, db, "Python", "Programming")

	c := createTextContent(t, db, "author", skill.ID, "Intro")
	if c.ID == 0 || c.CreatedAt.IsZero() {
		t.Fatalf("Create() did not fill id/timestamps: %+v", c)
	}
	createTextContent(t, db, "author", skill.ID, "Part 2")

	if got := getUser(t, db, "author").TotalTaught; got != 2 {
		t.Errorf("TotalTaught = %d, want 2", got)
	}
}

func TestContentCreate_FilePayloadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "author")
	skill := createTestSkill(t, db, "Guitar", "Music")

	c := &model.Content{
		Title:       "Chords",
		ContentType: model.ContentVideo,
		FilePath:    model.Ptr("uploads/chords.mp4"),
		FileName:    model.Ptr("chords.mp4"),
		FileSize:    model.Ptr(int64(1 << 20)),
		AuthorID:    "author",
		SkillID:     skill.ID,
	}
	if err := db.Content().Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.Content().GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ContentData != nil {
		t.Errorf("ContentData = %q, want nil", *got.ContentData)
	}
	if got.FileSize == nil || *got.FileSize != 1<<20 || *got.FileName != "chords.mp4" {
		t.Errorf("file fields = %v/%v, want chords.mp4/%d", got.FileName, got.FileSize, 1<<20)
	}
}

func TestContentCreate_MissingReferences(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "author")
	skill := createTestSkill(t, db, "Python", "Programming")

	noAuthor := &model.Content{Title: "x", ContentType: model.ContentText, ContentData: model.Ptr("x"), AuthorID: "ghost", SkillID: skill.ID}
	if err := db.Content().Create(ctx, noAuthor); !errors.Is(err, apperror.ErrForeignKey) {
		t.Errorf("Create(unknown author) error = %v, want ErrForeignKey", err)
	}

	noSkill := &model.Content{Title: "x", ContentType: model.ContentText, ContentData: model.Ptr("x"), AuthorID: "author", SkillID: 999}
	if err := db.Content().Create(ctx, noSkill); !errors.Is(err, apperror.ErrForeignKey) {
		t.Errorf("Create(unknown skill) error = %v, want ErrForeignKey", err)
	}

	// The failed inserts rolled back their counter bumps.
	if got := getUser(t, db, "author").TotalTaught; got != 0 {
		t.Errorf("TotalTaught = %d after failed creates, want 0", got)
	}
}

func TestContentSchema_RejectsMixedPayload(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "author")
	skill := createTestSkill(t, db, "Python", "Programming")

	// Straight to SQL, past model validation: the CHECK constraint must hold on its own.
	_, err := db.conn.Exec(`INSERT INTO content (title, content_type, content_data, file_path, file_name, file_size, author_id, skill_id)
		VALUES ('bad', 'text', 'inline', 'a.txt', 'a.txt', 3, 'author', ?)`, skill.ID)
	if err == nil {
		t.Fatal("mixed payload accepted by schema")
	}
	if mapped := dbError("inserting", err, "content", ""); !errors.Is(mapped, apperror.ErrValidation) {
		t.Errorf("mapped error = %v, want ErrValidation", mapped)
	}

	_, err = db.conn.Exec(`INSERT INTO content (title, content_type, author_id, skill_id)
		VALUES ('bad', 'video', 'author', ?)`, skill.ID)
	if err == nil {
		t.Error("video without file accepted by schema")
	}
}

// =========================================================================
// LIST / UPDATE TESTS
// =========================================================================

func TestContentList_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "a")
	createTestUser(t, db, "b")
	py := createTestSkill(t, db, "Python", "Programming")
	goSkill := createTestSkill(t, db, "Go", "Programming")
	createTextContent(t, db, "a", py.ID, "a-py-1")
	createTextContent(t, db, "a", goSkill.ID, "a-go-1")
	createTextContent(t, db, "b", py.ID, "b-py-1")

	byAuthor, err := db.Content().List(ctx, repository.ContentFilter{AuthorID: "a"})
	if err != nil {
		t.Fatalf("List(author) error = %v", err)
	}
	if len(byAuthor) != 2 {
		t.Errorf("by author len = %d, want 2", len(byAuthor))
	}

	bySkill, err := db.Content().List(ctx, repository.ContentFilter{SkillID: py.ID})
	if err != nil {
		t.Fatalf("List(skill) error = %v", err)
	}
	if len(bySkill) != 2 {
		t.Errorf("by skill len = %d, want 2", len(bySkill))
	}

	both, err := db.Content().List(ctx, repository.ContentFilter{AuthorID: "b", SkillID: py.ID, ContentType: model.ContentText})
	if err != nil {
		t.Fatalf("List(both) error = %v", err)
	}
	if len(both) != 1 || both[0].Title != "b-py-1" {
		t.Errorf("combined filter = %+v, want b-py-1 only", both)
	}

	videos, err := db.Content().List(ctx, repository.ContentFilter{ContentType: model.ContentVideo})
	if err != nil {
		t.Fatalf("List(video) error = %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("videos len = %d, want 0", len(videos))
	}
}

func TestContentUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "a")
	skill := createTestSkill(t, db, "Python", "Programming")
	c := createTextContent(t, db, "a", skill.ID, "Draft")
	before := c.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	c.Title = "Final"
	c.ContentData = model.Ptr("new body")
	if err := db.Content().Update(ctx, c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Content().GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Final" || *got.ContentData != "new body" {
		t.Errorf("not updated: %+v", got)
	}
	if !got.UpdatedAt.After(before) {
		t.Errorf("UpdatedAt %v not after %v", got.UpdatedAt, before)
	}

	c.ID = 999
	if err := db.Content().Update(ctx, c); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(999) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE / COUNTER TESTS
// =========================================================================

func TestContentDelete_DecrementsAndDetachesRatings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "author")
	createTestUser(t, db, "fan")
	skill := createTestSkill(t, db, "Python", "Programming")
	c := createTextContent(t, db, "author", skill.ID, "Intro")

	r := &model.Rating{Score: 5, RaterID: "fan", RatedUserID: "author", ContentID: model.Ptr(c.ID)}
	if err := db.Ratings().Create(ctx, r); err != nil {
		t.Fatalf("Ratings().Create() error = %v", err)
	}

	if err := db.Content().Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	author := getUser(t, db, "author")
	if author.TotalTaught != 0 {
		t.Errorf("TotalTaught = %d, want 0", author.TotalTaught)
	}
	// The rating survives as a plain user rating.
	if author.TotalRatings != 1 || author.AverageRating != 5 {
		t.Errorf("rating aggregates = %d/%v, want 1/5", author.TotalRatings, author.AverageRating)
	}
	got, err := db.Ratings().GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("rating lost with content: %v", err)
	}
	if got.ContentID != nil {
		t.Errorf("ContentID = %d, want nil", *got.ContentID)
	}

	if err := db.Content().Delete(ctx, c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestContentCounters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "a")
	skill := createTestSkill(t, db, "Python", "Programming")
	c := createTextContent(t, db, "a", skill.ID, "Intro")

	for i := 1; i <= 3; i++ {
		views, err := db.Content().IncrementViews(ctx, c.ID)
		if err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
		if views != int64(i) {
			t.Errorf("views = %d, want %d", views, i)
		}
	}

	if likes, err := db.Content().Like(ctx, c.ID); err != nil || likes != 1 {
		t.Errorf("Like() = %d, %v; want 1", likes, err)
	}
	if likes, err := db.Content().Unlike(ctx, c.ID); err != nil || likes != 0 {
		t.Errorf("Unlike() = %d, %v; want 0", likes, err)
	}
	// Never below zero.
	if likes, err := db.Content().Unlike(ctx, c.ID); err != nil || likes != 0 {
		t.Errorf("Unlike() at zero = %d, %v; want 0", likes, err)
	}

	if _, err := db.Content().Like(ctx, 999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Like(999) error = %v, want ErrNotFound", err)
	}
}
