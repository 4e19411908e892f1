package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
)

// ContentType selects which payload fields a Content row carries.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
	ContentImage ContentType = "image"
	ContentFile  ContentType = "file"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentVideo, ContentAudio, ContentImage, ContentFile:
		return true
	}
	return false
}

// IsFile reports whether the payload lives in a stored file rather than inline.
func (t ContentType) IsFile() bool {
	return t.Valid() && t != ContentText
}

const (
	MaxTitleLength    = 200
	MaxFilePathLength = 255
	MaxFileNameLength = 255
)

// Content is a learning resource published by a user for one skill.
//
// The payload is either inline (text: non-blank ContentData, no file fields) or a
// file reference (video/audio/image/file: FilePath, FileName and FileSize all
// set, ContentData nil). Mixed shapes are rejected by Validate and by the
// table's CHECK constraint.
type Content struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ContentType ContentType `json:"contentType"`
	ContentData *string     `json:"contentData,omitempty"`
	FilePath    *string     `json:"filePath,omitempty"`
	FileName    *string     `json:"fileName,omitempty"`
	FileSize    *int64      `json:"fileSize,omitempty"`
	Views       int64       `json:"views"`
	Likes       int64       `json:"likes"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	AuthorID    string      `json:"authorId"`
	SkillID     int64       `json:"skillId"`
}

func (c *Content) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(c.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(c.AuthorID) == "" {
		return apperror.ValidationFailed("authorId", "author is required")
	}
	if c.SkillID <= 0 {
		return apperror.ValidationFailed("skillId", "skill is required")
	}
	if !c.ContentType.Valid() {
		return apperror.ValidationFailed("contentType",
			fmt.Sprintf("unknown content type %q", c.ContentType))
	}
	return c.validatePayload()
}

func (c *Content) validatePayload() error {
	if c.ContentType == ContentText {
		if c.ContentData == nil || strings.TrimSpace(*c.ContentData) == "" {
			return apperror.ValidationFailed("contentData", "text content requires content data")
		}
		if c.FilePath != nil || c.FileName != nil || c.FileSize != nil {
			return apperror.ValidationFailed("filePath", "text content must not carry file fields")
		}
		return nil
	}

	if c.ContentData != nil {
		return apperror.ValidationFailed("contentData",
			fmt.Sprintf("%s content must not carry inline data", c.ContentType))
	}
	if c.FilePath == nil || strings.TrimSpace(*c.FilePath) == "" {
		return apperror.ValidationFailed("filePath",
			fmt.Sprintf("%s content requires a file path", c.ContentType))
	}
	if len(*c.FilePath) > MaxFilePathLength {
		return apperror.ValidationFailed("filePath",
			fmt.Sprintf("file path must be %d characters or less", MaxFilePathLength))
	}
	if c.FileName == nil || strings.TrimSpace(*c.FileName) == "" {
		return apperror.ValidationFailed("fileName",
			fmt.Sprintf("%s content requires a file name", c.ContentType))
	}
	if len(*c.FileName) > MaxFileNameLength {
		return apperror.ValidationFailed("fileName",
			fmt.Sprintf("file name must be %d characters or less", MaxFileNameLength))
	}
	if c.FileSize == nil || *c.FileSize < 0 {
		return apperror.ValidationFailed("fileSize",
			fmt.Sprintf("%s content requires a non-negative file size", c.ContentType))
	}
	return nil
}
