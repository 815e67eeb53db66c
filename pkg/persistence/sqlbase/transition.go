package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

const transitionColumns = `
	seq
  , id
  , post_id
  , from_state
  , to_state
  , action
  , user_id
  , comment
  , occurred_at
`

// TransitionRepository reads the append-only transition log.
type TransitionRepository struct {
	store *Store
}

// ListByPost returns the transitions of one post, newest first.
func (r *TransitionRepository) ListByPost(ctx context.Context, postID string) ([]*models.WorkflowTransition, error) {
	query := r.store.dialect.Rebind(`SELECT ` + transitionColumns + `
		FROM workflow_transitions
		WHERE post_id = ?
		ORDER BY occurred_at DESC, seq DESC`)

	transitions, err := r.query(ctx, query, postID)
	if err != nil {
		return nil, persistence.NewPostError("ListByPost", postID, err)
	}

	return transitions, nil
}

// ListSince returns every transition recorded at or after since, newest first.
func (r *TransitionRepository) ListSince(ctx context.Context, since time.Time) ([]*models.WorkflowTransition, error) {
	query := r.store.dialect.Rebind(`SELECT ` + transitionColumns + `
		FROM workflow_transitions
		WHERE occurred_at >= ?
		ORDER BY occurred_at DESC, seq DESC`)

	return r.query(ctx, query, since.UTC())
}

func (r *TransitionRepository) query(ctx context.Context, query string, args ...any) ([]*models.WorkflowTransition, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}

	defer r.store.closeRows(ctx, rows)

	transitions := make([]*models.WorkflowTransition, 0)

	for rows.Next() {
		var (
			transition models.WorkflowTransition
			comment    sql.NullString
		)

		err := rows.Scan(
			&transition.Seq,
			&transition.ID,
			&transition.PostID,
			&transition.FromState,
			&transition.ToState,
			&transition.Action,
			&transition.UserID,
			&comment,
			&transition.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}

		transition.Comment = stringPtr(comment)
		transition.Timestamp = transition.Timestamp.UTC()

		transitions = append(transitions, &transition)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return transitions, nil
}
