package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tag is a normalized label shared across contacts.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTag creates a new Tag with a generated UUID. The name must already be
// normalized via NormalizeTagName.
func NewTag(name string) *Tag {
	return &Tag{
		ID:   uuid.New().String(),
		Name: name,
	}
}

// NormalizeTagName lowercases a tag name and collapses whitespace runs to a
// single hyphen. Returns a ValidationError when nothing is left.
func NormalizeTagName(name string) (string, error) {
	fields := strings.Fields(strings.ToLower(name))
	normalized := strings.Join(fields, "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return "", &ValidationError{Field: "tag", Message: "Tag name is empty"}
	}
	return normalized, nil
}
