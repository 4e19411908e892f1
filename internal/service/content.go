package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// ContentPatch carries the editable parts of a content item. Nil fields
// are left unchanged. Switching between text and file payloads means
// setting the new payload and clearing the old one (empty string, or a
// negative FileSize).
type ContentPatch struct {
	Title       *string
	Description *string
	ContentType *model.ContentType
	ContentData *string
	FilePath    *string
	FileName    *string
	FileSize    *int64
}

type ContentService struct {
	content repository.ContentRepository
	retry   RetryPolicy
	logger  *slog.Logger
}

func NewContentService(content repository.ContentRepository, retry RetryPolicy, logger *slog.Logger) *ContentService {
	return &ContentService{content: content, retry: retry, logger: logger}
}

// Create publishes c and credits its author with one more item taught.
func (s *ContentService) Create(ctx context.Context, c *model.Content) (*model.Content, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)

	err := withRetryErr(ctx, s.retry, s.logger, "creating content", func() error {
		return s.content.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("content created",
		slog.Int64("id", c.ID),
		slog.String("authorID", c.AuthorID),
		slog.String("type", string(c.ContentType)),
	)
	return c, nil
}

func (s *ContentService) Get(ctx context.Context, id int64) (*model.Content, error) {
	return s.content.GetByID(ctx, id)
}

// owned loads content and checks that actorID wrote it.
func (s *ContentService) owned(ctx context.Context, actorID string, id int64) (*model.Content, error) {
	c, err := s.content.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actorID {
		return nil, apperror.Forbidden("only the author may change this content")
	}
	return c, nil
}

func (s *ContentService) Update(ctx context.Context, actorID string, id int64, patch ContentPatch) (*model.Content, error) {
	c, err := withRetry(ctx, s.retry, s.logger, "updating content", func() (*model.Content, error) {
		c, err := s.owned(ctx, actorID, id)
		if err != nil {
			return nil, err
		}
		patch.apply(c)
		if err := s.content.Update(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("content updated", slog.Int64("id", id))
	return c, nil
}

func (p ContentPatch) apply(c *model.Content) {
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.ContentType != nil {
		c.ContentType = *p.ContentType
	}
	if p.ContentData != nil {
		if *p.ContentData == "" {
			c.ContentData = nil
		} else {
			c.ContentData = model.Ptr(*p.ContentData)
		}
	}
	if p.FilePath != nil {
		c.FilePath = trimPtr(p.FilePath)
	}
	if p.FileName != nil {
		c.FileName = trimPtr(p.FileName)
	}
	if p.FileSize != nil {
		if *p.FileSize < 0 {
			c.FileSize = nil
		} else {
			c.FileSize = model.Ptr(*p.FileSize)
		}
	}
}

// Delete removes content written by actorID. Ratings given on it stay with
// the author but lose their content link.
func (s *ContentService) Delete(ctx context.Context, actorID string, id int64) error {
	err := withRetryErr(ctx, s.retry, s.logger, "deleting content", func() error {
		if _, err := s.owned(ctx, actorID, id); err != nil {
			return err
		}
		return s.content.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("content deleted", slog.Int64("id", id), slog.String("authorID", actorID))
	return nil
}

func (s *ContentService) RecordView(ctx context.Context, id int64) (int64, error) {
	return withRetry(ctx, s.retry, s.logger, "recording view", func() (int64, error) {
		return s.content.IncrementViews(ctx, id)
	})
}

func (s *ContentService) Like(ctx context.Context, id int64) (int64, error) {
	return withRetry(ctx, s.retry, s.logger, "liking content", func() (int64, error) {
		return s.content.Like(ctx, id)
	})
}

func (s *ContentService) Unlike(ctx context.Context, id int64) (int64, error) {
	return withRetry(ctx, s.retry, s.logger, "unliking content", func() (int64, error) {
		return s.content.Unlike(ctx, id)
	})
}

func (s *ContentService) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]model.Content, error) {
	return s.content.List(ctx, repository.ContentFilter{AuthorID: authorID, ListOptions: page(limit, offset)})
}

func (s *ContentService) ListBySkill(ctx context.Context, skillID int64, limit, offset int) ([]model.Content, error) {
	return s.content.List(ctx, repository.ContentFilter{SkillID: skillID, ListOptions: page(limit, offset)})
}

func (s *ContentService) List(ctx context.Context, filter repository.ContentFilter) ([]model.Content, error) {
	filter.ListOptions = filter.ListOptions.Normalize()
	return s.content.List(ctx, filter)
}
