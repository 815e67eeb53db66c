// Package persistence provides the storage abstraction for posts, their
// workflow transition log and their content versions.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/editorial/pkg/models"
)

// Persistence is the transactional store the editorial services run against.
type Persistence interface {
	PostRepository() PostRepository
	TransitionRepository() TransitionRepository
	VersionRepository() VersionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// PostRepository reads and writes the post fields owned by this subsystem.
type PostRepository interface {
	// GetPost returns ErrPostNotFound when the post does not exist.
	GetPost(ctx context.Context, postID string) (*models.Post, error)

	// SavePost inserts or replaces a post. Used by the CRUD layer and by seeds.
	SavePost(ctx context.Context, post *models.Post) error

	// ListPosts returns a filtered page of posts.
	ListPosts(ctx context.Context, opts ListPostsOptions) (*PostListResult, error)

	// CountByState groups every post by its current workflow state.
	CountByState(ctx context.Context) (map[models.WorkflowState]int64, error)

	// ApplyTransition moves the post from write.From to write.To and appends
	// write.Record in one atomic unit. It returns ErrStateConflict when the
	// stored state no longer equals write.From; nothing is written in that case.
	ApplyTransition(ctx context.Context, write TransitionWrite) error
}

// TransitionWrite is the compare-and-swap unit applied by ApplyTransition.
type TransitionWrite struct {
	PostID      string
	From        models.WorkflowState
	To          models.WorkflowState
	PublishedAt *time.Time // set only when moving into PUBLISHED
	Record      *models.WorkflowTransition
}

// TransitionRepository reads the append-only transition log.
type TransitionRepository interface {
	// ListByPost returns the transitions of a post, newest first.
	ListByPost(ctx context.Context, postID string) ([]*models.WorkflowTransition, error)

	// ListSince returns every transition at or after since, newest first.
	ListSince(ctx context.Context, since time.Time) ([]*models.WorkflowTransition, error)
}

// VersionRepository stores content versions.
type VersionRepository interface {
	// CreateVersion assigns the next version number for version.PostID, stores
	// the version as the only active one, deactivates every other version of the
	// post and copies title/content/excerpt onto the post, all atomically. The
	// assigned Version and IsActive fields are written back into version.
	// It returns ErrPostNotFound when the post does not exist and
	// ErrVersionConflict when a concurrent writer took the same number.
	CreateVersion(ctx context.Context, version *models.ContentVersion) error

	// GetVersion returns ErrVersionNotFound for unknown ids.
	GetVersion(ctx context.Context, versionID string) (*models.ContentVersion, error)

	// ListVersions returns the versions of a post, highest version number first.
	ListVersions(ctx context.Context, postID string) ([]*models.ContentVersion, error)
}

// ListPostsOptions filters and paginates ListPosts.
type ListPostsOptions struct {
	State      *models.WorkflowState
	AuthorID   string
	CategoryID string
	Limit      int
	Offset     int
}

// PostListResult is one page of posts.
type PostListResult struct {
	Posts       []*models.Post `json:"posts"`
	TotalCount  int64          `json:"total_count"`
	HasNextPage bool           `json:"has_next_page"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage applies the default and maximum page size and clamps a
// negative offset to zero.
func NormalizePage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	return limit, max(offset, 0)
}
