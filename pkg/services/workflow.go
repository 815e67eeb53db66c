package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/editorial/pkg/events"
	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/otelhelper"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/dukex/editorial/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Attempts made by ExecuteAction before reporting a conflict.
const maxTransitionAttempts = 2

var actionMessages = [...]string{
	models.ActionSubmitForReview: "Post submitted for review",
	models.ActionApprove:         "Post approved",
	models.ActionReject:          "Post rejected",
	models.ActionPublish:         "Post published",
	models.ActionArchive:         "Post archived",
	models.ActionReturnToDraft:   "Post returned to draft",
}

var _ = [1]struct{}{}[len(actionMessages)-models.ActionCount]

// ActionRequest is one caller's request to move a post through the workflow.
// UserID and Role are trusted, already-authenticated values.
type ActionRequest struct {
	PostID  string
	Action  models.WorkflowAction
	UserID  string
	Role    models.Role
	Comment *string
}

// ActionResult describes a committed transition.
type ActionResult struct {
	Message    string                     `json:"message"`
	NewState   models.WorkflowState       `json:"new_state"`
	Transition *models.WorkflowTransition `json:"transition"`
}

// Workflow is the workflow engine: it validates and applies state transitions.
type Workflow struct {
	deps Dependencies
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(deps Dependencies) *Workflow {
	return &Workflow{deps: deps.withDefaults()}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.deps.Persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.deps.Persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ExecuteAction applies req.Action to the post. Legality and permission are
// checked against the live state before anything is written; the state change
// and its transition record are committed together. Cache invalidation and
// event publishing follow a successful commit and never fail the call.
func (w *Workflow) ExecuteAction(ctx context.Context, req ActionRequest) (result *ActionResult, err error) {
	ctx, span := w.deps.startSpan(ctx, "workflow.ExecuteAction",
		attribute.String(otelhelper.PostIDKey, req.PostID),
		attribute.String(otelhelper.ActionKey, req.Action.String()),
		attribute.String(otelhelper.UserIDKey, req.UserID),
		attribute.String(otelhelper.RoleKey, string(req.Role)),
	)
	defer func() { finishSpan(span, err) }()

	unlock := w.deps.Locks.Lock(req.PostID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		result, err = w.attempt(ctx, req)
		if !errors.Is(err, persistence.ErrStateConflict) {
			break
		}

		if attempt >= maxTransitionAttempts {
			return nil, fromPersistence("ExecuteAction", err)
		}

		w.deps.Logger.InfoContext(ctx, "workflow state changed concurrently, retrying",
			"post_id", req.PostID, "action", req.Action, "attempt", attempt)
	}

	if err != nil {
		return nil, err
	}

	transition := result.Transition

	span.SetAttributes(
		attribute.String(otelhelper.FromStateKey, transition.FromState.String()),
		attribute.String(otelhelper.ToStateKey, transition.ToState.String()),
	)

	w.deps.Logger.InfoContext(ctx, "workflow transition applied",
		"post_id", req.PostID,
		"action", req.Action,
		"from_state", transition.FromState,
		"to_state", transition.ToState,
		"user_id", req.UserID,
	)

	w.deps.invalidate(ctx, req.PostID)
	w.deps.publish(ctx, req.PostID, events.PostTransitioned{
		BaseEvent:    events.NewBaseEvent(w.deps.Events.GenerateID(), events.PostTransitionedEvent, req.PostID, transition.Timestamp),
		TransitionID: transition.ID,
		FromState:    transition.FromState,
		ToState:      transition.ToState,
		Action:       transition.Action,
		UserID:       transition.UserID,
		Comment:      transition.Comment,
	})

	return result, nil
}

// attempt runs one read-check-write pass. A lost compare-and-swap is returned
// as the raw persistence.ErrStateConflict so the caller can retry.
func (w *Workflow) attempt(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	post, err := w.deps.Persistence.PostRepository().GetPost(ctx, req.PostID)
	if err != nil {
		return nil, fromPersistence("ExecuteAction", err)
	}

	next, err := authorize(post, req.Action, req.UserID, req.Role)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, newError("ExecuteAction", ErrStoreUnavailable, "failed to generate transition id", err)
	}

	now := w.deps.now()
	record := &models.WorkflowTransition{
		ID:        id.String(),
		PostID:    post.ID,
		FromState: post.WorkflowState,
		ToState:   next,
		Action:    req.Action,
		UserID:    req.UserID,
		Comment:   req.Comment,
		Timestamp: now,
	}

	write := persistence.TransitionWrite{
		PostID: post.ID,
		From:   post.WorkflowState,
		To:     next,
		Record: record,
	}

	if next == models.StatePublished {
		write.PublishedAt = &now
	}

	err = w.deps.Persistence.PostRepository().ApplyTransition(ctx, write)
	if err != nil {
		if persistence.IsConflict(err) {
			return nil, err
		}

		return nil, fromPersistence("ExecuteAction", err)
	}

	return &ActionResult{
		Message:    actionMessages[req.Action],
		NewState:   next,
		Transition: record,
	}, nil
}

// AvailableActions lists the actions userID with role could apply to the post
// right now.
func (w *Workflow) AvailableActions(ctx context.Context, postID, userID string, role models.Role) ([]models.WorkflowAction, error) {
	post, err := w.deps.Persistence.PostRepository().GetPost(ctx, postID)
	if err != nil {
		return nil, fromPersistence("AvailableActions", err)
	}

	actions := workflow.AllowedActions(post.WorkflowState)

	return slices.DeleteFunc(actions, func(action models.WorkflowAction) bool {
		_, err := authorize(post, action, userID, role)

		return err != nil
	}), nil
}

// authorize checks legality, role and ownership, in that order, and returns
// the state action leads to.
func authorize(post *models.Post, action models.WorkflowAction, userID string, role models.Role) (models.WorkflowState, error) {
	next, ok := workflow.NextState(post.WorkflowState, action)
	if !ok {
		return 0, newError("ExecuteAction", ErrIllegalTransition,
			fmt.Sprintf("action %s is not allowed from state %s", action, post.WorkflowState), nil)
	}

	if !workflow.IsPermitted(action, role) {
		return 0, newError("ExecuteAction", ErrForbidden,
			fmt.Sprintf("role %q may not perform %s", role, action), nil)
	}

	if action == models.ActionSubmitForReview && userID != post.AuthorID && !role.Elevated() {
		return 0, newError("ExecuteAction", ErrForbidden,
			"only the author or an editor may submit this post for review", nil)
	}

	return next, nil
}
