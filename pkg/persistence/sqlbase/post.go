package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

const postColumns = `
	id
  , author_id
  , category_id
  , title
  , content
  , excerpt
  , workflow_state
  , status
  , published_at
  , created_at
  , updated_at
`

// PostRepository handles post-related database operations.
type PostRepository struct {
	store *Store
}

// GetPost retrieves a post by its ID.
func (r *PostRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	query := r.store.dialect.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ?`)

	post, err := scanPost(r.store.db.QueryRowContext(ctx, query, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewPostError("GetPost", postID, persistence.ErrPostNotFound)
		}

		return nil, persistence.NewPostError("GetPost", postID, err)
	}

	return post, nil
}

// SavePost inserts or replaces a post.
func (r *PostRepository) SavePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		return persistence.NewPostError("SavePost", post.ID, persistence.ErrInvalidPost)
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

	query := r.store.dialect.Rebind(`
		INSERT INTO posts (id, author_id, category_id, title, content, excerpt,
			workflow_state, status, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			author_id = EXCLUDED.author_id,
			category_id = EXCLUDED.category_id,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			excerpt = EXCLUDED.excerpt,
			workflow_state = EXCLUDED.workflow_state,
			status = EXCLUDED.status,
			published_at = EXCLUDED.published_at,
			updated_at = EXCLUDED.updated_at
	`)

	_, err := r.store.db.ExecContext(ctx, query,
		post.ID,
		post.AuthorID,
		post.CategoryID,
		post.Title,
		post.Content,
		nullString(post.Excerpt),
		post.WorkflowState,
		string(post.Status),
		nullTime(post.PublishedAt),
		post.CreatedAt.UTC(),
		post.UpdatedAt,
	)
	if err != nil {
		return persistence.NewPostError("SavePost", post.ID, err)
	}

	return nil
}

// ListPosts returns a filtered page of posts, most recently updated first.
func (r *PostRepository) ListPosts(ctx context.Context, opts persistence.ListPostsOptions) (*persistence.PostListResult, error) {
	opts.Limit, opts.Offset = persistence.NormalizePage(opts.Limit, opts.Offset)

	var (
		conditions []string
		args       []any
	)

	if opts.State != nil {
		conditions = append(conditions, "workflow_state = ?")
		args = append(args, *opts.State)
	}

	if opts.AuthorID != "" {
		conditions = append(conditions, "author_id = ?")
		args = append(args, opts.AuthorID)
	}

	if opts.CategoryID != "" {
		conditions = append(conditions, "category_id = ?")
		args = append(args, opts.CategoryID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int64

	err := r.store.db.QueryRowContext(ctx, r.store.dialect.Rebind(`SELECT COUNT(*) FROM posts`+where), args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	query := r.store.dialect.Rebind(`SELECT ` + postColumns + ` FROM posts` + where +
		` ORDER BY updated_at DESC, id ASC LIMIT ? OFFSET ?`)

	rows, err := r.store.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	defer r.store.closeRows(ctx, rows)

	posts := make([]*models.Post, 0, opts.Limit)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return &persistence.PostListResult{
		Posts:       posts,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(posts)) < totalCount,
	}, nil
}

// CountByState groups every post by its current workflow state.
func (r *PostRepository) CountByState(ctx context.Context) (map[models.WorkflowState]int64, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT workflow_state, COUNT(*) FROM posts GROUP BY workflow_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts by state: %w", err)
	}

	defer r.store.closeRows(ctx, rows)

	counts := make(map[models.WorkflowState]int64)

	for rows.Next() {
		var (
			state models.WorkflowState
			count int64
		)

		err := rows.Scan(&state, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}

		counts[state] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating state counts: %w", err)
	}

	return counts, nil
}

// ApplyTransition compares and swaps the workflow state and appends the
// transition record in one transaction.
func (r *PostRepository) ApplyTransition(ctx context.Context, write persistence.TransitionWrite) error {
	record := write.Record
	timestamp := record.Timestamp.UTC()

	err := r.store.inTx(ctx, func(tx *sql.Tx) error {
		update := r.store.dialect.Rebind(`
			UPDATE posts
			SET workflow_state = ?, updated_at = ?, published_at = COALESCE(?, published_at)
			WHERE id = ? AND workflow_state = ?
		`)

		result, err := tx.ExecContext(ctx, update, write.To, timestamp, nullTime(write.PublishedAt), write.PostID, write.From)
		if err != nil {
			return fmt.Errorf("failed to update workflow state: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if affected == 0 {
			return r.missingOrConflict(ctx, tx, write.PostID)
		}

		insert := r.store.dialect.Rebind(`
			INSERT INTO workflow_transitions (id, post_id, from_state, to_state, action, user_id, comment, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING seq
		`)

		var seq int64

		err = tx.QueryRowContext(ctx, insert,
			record.ID,
			write.PostID,
			record.FromState,
			record.ToState,
			record.Action,
			record.UserID,
			nullString(record.Comment),
			timestamp,
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("failed to insert transition: %w", err)
		}

		record.Seq = seq

		return nil
	})
	if err != nil {
		return persistence.NewPostError("ApplyTransition", write.PostID, err)
	}

	return nil
}

// missingOrConflict tells apart a vanished post from a lost compare-and-swap.
func (r *PostRepository) missingOrConflict(ctx context.Context, tx *sql.Tx, postID string) error {
	var exists int

	err := tx.QueryRowContext(ctx, r.store.dialect.Rebind(`SELECT 1 FROM posts WHERE id = ?`), postID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrPostNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to check post existence: %w", err)
	}

	return persistence.ErrStateConflict
}

func scanPost(row scanner) (*models.Post, error) {
	var (
		post        models.Post
		excerpt     sql.NullString
		status      string
		publishedAt sql.NullTime
	)

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.CategoryID,
		&post.Title,
		&post.Content,
		&excerpt,
		&post.WorkflowState,
		&status,
		&publishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Status = models.PostStatus(status)
	post.Excerpt = stringPtr(excerpt)
	post.PublishedAt = timePtr(publishedAt)
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()

	return &post, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}

	return &value.String
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}

	t := value.Time.UTC()

	return &t
}
