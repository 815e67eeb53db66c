package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

// PostRepository handles post-related file operations.
type PostRepository struct {
	store *Persistence
}

// GetPost retrieves a post by its ID from the file system.
func (pr *PostRepository) GetPost(_ context.Context, postID string) (*models.Post, error) {
	pr.store.mu.RLock()
	defer pr.store.mu.RUnlock()

	doc, err := pr.store.load(postID)
	if err != nil {
		return nil, persistence.NewPostError("GetPost", postID, err)
	}

	if doc == nil {
		return nil, persistence.NewPostError("GetPost", postID, persistence.ErrPostNotFound)
	}

	return doc.Post, nil
}

// SavePost creates or replaces a post, keeping its transitions and versions.
func (pr *PostRepository) SavePost(_ context.Context, post *models.Post) error {
	if post.ID == "" {
		return persistence.NewPostError("SavePost", post.ID, persistence.ErrInvalidPost)
	}

	err := pr.store.writeLocked(func() error {
		doc, err := pr.store.load(post.ID)
		if err != nil {
			return err
		}

		if doc == nil {
			doc = &document{}
		}

		now := time.Now().UTC()
		if post.CreatedAt.IsZero() {
			post.CreatedAt = now
		}

		post.UpdatedAt = now

		if post.WorkflowState == 0 {
			post.WorkflowState = models.StateDraft
		}

		if post.Status == "" {
			post.Status = models.PostStatusDraft
		}

		doc.Post = post

		return pr.store.save(doc)
	})
	if err != nil {
		return persistence.NewPostError("SavePost", post.ID, err)
	}

	return nil
}

// ListPosts returns paginated and filtered posts with in-memory operations.
func (pr *PostRepository) ListPosts(_ context.Context, opts persistence.ListPostsOptions) (*persistence.PostListResult, error) {
	opts.Limit, opts.Offset = persistence.NormalizePage(opts.Limit, opts.Offset)

	pr.store.mu.RLock()
	docs, err := pr.store.loadAll()
	pr.store.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Post, 0, len(docs))

	for _, doc := range docs {
		post := doc.Post

		if opts.State != nil && post.WorkflowState != *opts.State {
			continue
		}

		if opts.AuthorID != "" && post.AuthorID != opts.AuthorID {
			continue
		}

		if opts.CategoryID != "" && post.CategoryID != opts.CategoryID {
			continue
		}

		filtered = append(filtered, post)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].UpdatedAt.Equal(filtered[j].UpdatedAt) {
			return filtered[i].ID < filtered[j].ID
		}

		return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
	})

	totalCount := int64(len(filtered))

	if opts.Offset >= len(filtered) {
		return &persistence.PostListResult{
			Posts:       make([]*models.Post, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	endIdx := min(opts.Offset+opts.Limit, len(filtered))

	return &persistence.PostListResult{
		Posts:       filtered[opts.Offset:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

// CountByState groups all posts by their current workflow state.
func (pr *PostRepository) CountByState(_ context.Context) (map[models.WorkflowState]int64, error) {
	pr.store.mu.RLock()
	defer pr.store.mu.RUnlock()

	docs, err := pr.store.loadAll()
	if err != nil {
		return nil, err
	}

	counts := make(map[models.WorkflowState]int64)
	for _, doc := range docs {
		counts[doc.Post.WorkflowState]++
	}

	return counts, nil
}

// ApplyTransition swaps the workflow state and appends the transition record
// in a single document write. Sequence numbers are store-wide.
func (pr *PostRepository) ApplyTransition(_ context.Context, write persistence.TransitionWrite) error {
	var seq int64

	err := pr.store.writeLocked(func() error {
		doc, err := pr.store.load(write.PostID)
		if err != nil {
			return err
		}

		if doc == nil {
			return persistence.ErrPostNotFound
		}

		if doc.Post.WorkflowState != write.From {
			return persistence.ErrStateConflict
		}

		seq, err = pr.store.nextSeq()
		if err != nil {
			return err
		}

		doc.Post.WorkflowState = write.To
		doc.Post.UpdatedAt = write.Record.Timestamp

		if write.PublishedAt != nil {
			publishedAt := *write.PublishedAt
			doc.Post.PublishedAt = &publishedAt
		}

		record := *write.Record
		record.Seq = seq
		doc.Transitions = append(doc.Transitions, &record)

		return pr.store.save(doc)
	})
	if err != nil {
		return persistence.NewPostError("ApplyTransition", write.PostID, err)
	}

	write.Record.Seq = seq

	return nil
}
