package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

// TransitionRepository reads the transition log stored in post documents.
type TransitionRepository struct {
	store *Persistence
}

// ListByPost returns the transitions of one post, newest first.
func (tr *TransitionRepository) ListByPost(_ context.Context, postID string) ([]*models.WorkflowTransition, error) {
	tr.store.mu.RLock()
	defer tr.store.mu.RUnlock()

	doc, err := tr.store.load(postID)
	if err != nil {
		return nil, persistence.NewPostError("ListByPost", postID, err)
	}

	if doc == nil {
		return []*models.WorkflowTransition{}, nil
	}

	transitions := append([]*models.WorkflowTransition(nil), doc.Transitions...)
	sortNewestFirst(transitions)

	return transitions, nil
}

// ListSince returns every transition recorded at or after since, newest first.
func (tr *TransitionRepository) ListSince(_ context.Context, since time.Time) ([]*models.WorkflowTransition, error) {
	tr.store.mu.RLock()
	defer tr.store.mu.RUnlock()

	docs, err := tr.store.loadAll()
	if err != nil {
		return nil, err
	}

	transitions := make([]*models.WorkflowTransition, 0)

	for _, doc := range docs {
		for _, transition := range doc.Transitions {
			if !transition.Timestamp.Before(since) {
				transitions = append(transitions, transition)
			}
		}
	}

	sortNewestFirst(transitions)

	return transitions, nil
}

func sortNewestFirst(transitions []*models.WorkflowTransition) {
	sort.SliceStable(transitions, func(i, j int) bool {
		if transitions[i].Timestamp.Equal(transitions[j].Timestamp) {
			return transitions[i].Seq > transitions[j].Seq
		}

		return transitions[i].Timestamp.After(transitions[j].Timestamp)
	})
}
