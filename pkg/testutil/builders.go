// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/google/uuid"
)

// CreateTestPost creates a test Post in DRAFT with default values that can be overridden.
func CreateTestPost(overrides ...func(*models.Post)) *models.Post {
	now := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

	post := &models.Post{
		ID:            uuid.New().String(),
		AuthorID:      "author-1",
		CategoryID:    "news",
		Title:         "Test Post",
		Content:       "Test content",
		WorkflowState: models.StateDraft,
		Status:        models.PostStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(post)
	}

	return post
}

// WithState places the post in state.
func WithState(state models.WorkflowState) func(*models.Post) {
	return func(p *models.Post) {
		p.WorkflowState = state
	}
}

// WithAuthor sets the owning author.
func WithAuthor(authorID string) func(*models.Post) {
	return func(p *models.Post) {
		p.AuthorID = authorID
	}
}

// WithCategory sets the post category.
func WithCategory(categoryID string) func(*models.Post) {
	return func(p *models.Post) {
		p.CategoryID = categoryID
	}
}

// WithContent sets title, content and excerpt.
func WithContent(title, content string, excerpt *string) func(*models.Post) {
	return func(p *models.Post) {
		p.Title = title
		p.Content = content
		p.Excerpt = excerpt
	}
}

// WithUpdatedAt sets both timestamps.
func WithUpdatedAt(at time.Time) func(*models.Post) {
	return func(p *models.Post) {
		p.CreatedAt = at
		p.UpdatedAt = at
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// FixedClock returns a clock that always reports at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
