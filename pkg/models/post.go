package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the caller's already-verified editorial role.
type Role string

const (
	RoleContributor Role = "CONTRIBUTOR"
	RoleAuthor      Role = "AUTHOR"
	RoleEditor      Role = "EDITOR"
	RoleAdmin       Role = "ADMIN"
)

// AllRoles returns every known role, lowest privilege first.
func AllRoles() []Role {
	return []Role{RoleContributor, RoleAuthor, RoleEditor, RoleAdmin}
}

// ParseRole normalises a caller-supplied role string.
func ParseRole(name string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range AllRoles() {
		if role == known {
			return role, nil
		}
	}

	return "", fmt.Errorf("unknown role %q", name)
}

// Elevated reports whether the role may act on content it does not own.
func (r Role) Elevated() bool {
	return r == RoleEditor || r == RoleAdmin
}

// PostStatus is the public visibility flag managed by the CRUD API and the
// timed-publish scheduler. It is independent of WorkflowState.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusArchived  PostStatus = "archived"
)

// Post is the slice of the post entity this subsystem reads and writes.
type Post struct {
	ID            string        `json:"id"`
	AuthorID      string        `json:"author_id"`
	CategoryID    string        `json:"category_id,omitempty"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Excerpt       *string       `json:"excerpt,omitempty"`
	WorkflowState WorkflowState `json:"workflow_state"`
	Status        PostStatus    `json:"status"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Summary returns the listing view of the post.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		CategoryID:    p.CategoryID,
		Title:         p.Title,
		Excerpt:       p.Excerpt,
		WorkflowState: p.WorkflowState,
		PublishedAt:   p.PublishedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PostSummary is a post without its body, used by listings.
type PostSummary struct {
	ID            string        `json:"id"`
	AuthorID      string        `json:"author_id"`
	CategoryID    string        `json:"category_id,omitempty"`
	Title         string        `json:"title"`
	Excerpt       *string       `json:"excerpt,omitempty"`
	WorkflowState WorkflowState `json:"workflow_state"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
