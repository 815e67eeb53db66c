package services

import (
	"context"
	"fmt"

	"github.com/dukex/editorial/pkg/cache"
	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

// Number of transitions kept in WorkflowStats.RecentTransitions.
const recentTransitionsLimit = 10

// History serves read-only queries over the transition log and the post set.
// Results may be served from cache and can be slightly stale.
type History struct {
	deps Dependencies
}

// NewHistory creates a new history service.
func NewHistory(deps Dependencies) *History {
	return &History{deps: deps.withDefaults()}
}

// GetWorkflowHistory returns the post's transitions, newest first.
func (h *History) GetWorkflowHistory(ctx context.Context, postID string) ([]*models.WorkflowTransition, error) {
	return cache.Fetch(ctx, h.deps.Cache, h.deps.Logger, HistoryCacheKey(postID), h.deps.HistoryTTL,
		func(ctx context.Context) ([]*models.WorkflowTransition, error) {
			_, err := h.deps.Persistence.PostRepository().GetPost(ctx, postID)
			if err != nil {
				return nil, fromPersistence("GetWorkflowHistory", err)
			}

			transitions, err := h.deps.Persistence.TransitionRepository().ListByPost(ctx, postID)
			if err != nil {
				return nil, fromPersistence("GetWorkflowHistory", err)
			}

			return transitions, nil
		})
}

// PostsByStateRequest selects a page of posts in one workflow state.
type PostsByStateRequest struct {
	State      models.WorkflowState
	AuthorID   string
	CategoryID string
	Limit      int
	Offset     int
}

// PostsPage is one page of post summaries.
type PostsPage struct {
	Posts       []models.PostSummary `json:"posts"`
	TotalCount  int64                `json:"total_count"`
	HasNextPage bool                 `json:"has_next_page"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// GetPostsByState lists posts currently in req.State, most recently updated first.
func (h *History) GetPostsByState(ctx context.Context, req PostsByStateRequest) (*PostsPage, error) {
	if !req.State.Valid() {
		return nil, newError("GetPostsByState", ErrInvalidRequest,
			fmt.Sprintf("unknown workflow state %d", uint8(req.State)), nil)
	}

	limit, offset := persistence.NormalizePage(req.Limit, req.Offset)

	result, err := h.deps.Persistence.PostRepository().ListPosts(ctx, persistence.ListPostsOptions{
		State:      &req.State,
		AuthorID:   req.AuthorID,
		CategoryID: req.CategoryID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fromPersistence("GetPostsByState", err)
	}

	summaries := make([]models.PostSummary, 0, len(result.Posts))
	for _, post := range result.Posts {
		summaries = append(summaries, post.Summary())
	}

	return &PostsPage{
		Posts:       summaries,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
		Limit:       limit,
		Offset:      offset,
	}, nil
}

// StatsCacheKey is the cache key of the aggregates for window.
func StatsCacheKey(window models.StatsWindow) string {
	return statsKeyPrefix + string(window)
}

// GetWorkflowStats aggregates every post by current state and the transitions
// made within window by action.
func (h *History) GetWorkflowStats(ctx context.Context, window models.StatsWindow) (*models.WorkflowStats, error) {
	window, err := models.ParseStatsWindow(string(window))
	if err != nil {
		return nil, newError("GetWorkflowStats", ErrInvalidRequest, err.Error(), nil)
	}

	return cache.FetchGuarded(ctx, h.deps.Cache, h.deps.Logger, StatsCacheKey(window), statsKeyPrefix, h.deps.StatsTTL,
		func(ctx context.Context) (*models.WorkflowStats, error) {
			return h.computeStats(ctx, window)
		})
}

func (h *History) computeStats(ctx context.Context, window models.StatsWindow) (*models.WorkflowStats, error) {
	now := h.deps.now()
	since := now.Add(-window.Duration())

	counts, err := h.deps.Persistence.PostRepository().CountByState(ctx)
	if err != nil {
		return nil, fromPersistence("GetWorkflowStats", err)
	}

	transitions, err := h.deps.Persistence.TransitionRepository().ListSince(ctx, since)
	if err != nil {
		return nil, fromPersistence("GetWorkflowStats", err)
	}

	stats := &models.WorkflowStats{
		Window:            window,
		Since:             since,
		StateDistribution: make(map[models.WorkflowState]int64, models.StateCount),
		ActionCounts:      make(map[models.WorkflowAction]int64, models.ActionCount),
		RecentTransitions: transitions[:min(len(transitions), recentTransitionsLimit)],
		GeneratedAt:       now,
	}

	for _, state := range models.AllStates() {
		stats.StateDistribution[state] = counts[state]
	}

	for _, action := range models.AllActions() {
		stats.ActionCounts[action] = 0
	}

	for _, transition := range transitions {
		stats.ActionCounts[transition.Action]++
	}

	return stats, nil
}
