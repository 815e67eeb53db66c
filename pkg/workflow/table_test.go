package workflow_test

import (
	"sync"
	"testing"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		state    models.WorkflowState
		action   models.WorkflowAction
		expected models.WorkflowState
		ok       bool
	}{
		{"draft submit", models.StateDraft, models.ActionSubmitForReview, models.StateReview, true},
		{"draft archive", models.StateDraft, models.ActionArchive, models.StateArchived, true},
		{"draft approve is illegal", models.StateDraft, models.ActionApprove, 0, false},
		{"review approve", models.StateReview, models.ActionApprove, models.StateApproved, true},
		{"review reject", models.StateReview, models.ActionReject, models.StateRejected, true},
		{"review return", models.StateReview, models.ActionReturnToDraft, models.StateDraft, true},
		{"review publish is illegal", models.StateReview, models.ActionPublish, 0, false},
		{"approved publish", models.StateApproved, models.ActionPublish, models.StatePublished, true},
		{"published archive", models.StatePublished, models.ActionArchive, models.StateArchived, true},
		{"published submit is illegal", models.StatePublished, models.ActionSubmitForReview, 0, false},
		{"rejected return", models.StateRejected, models.ActionReturnToDraft, models.StateDraft, true},
		{"rejected approve is illegal", models.StateRejected, models.ActionApprove, 0, false},
		{"unknown state", models.WorkflowState(0), models.ActionApprove, 0, false},
		{"unknown action", models.StateDraft, models.WorkflowAction(99), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next, ok := workflow.NextState(tt.state, tt.action)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, next)
		})
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, workflow.IsTerminal(models.StateArchived))
	assert.Empty(t, workflow.AllowedActions(models.StateArchived))

	for _, action := range models.AllActions() {
		_, ok := workflow.NextState(models.StateArchived, action)
		assert.False(t, ok, "action %s must not leave ARCHIVED", action)
	}
}

func TestTablesAreComplete(t *testing.T) {
	t.Parallel()

	for _, action := range models.AllActions() {
		assert.NotEmpty(t, workflow.PermittedRoles(action), "action %s has no roles", action)

		target, ok := workflow.Target(action)
		require.True(t, ok)
		assert.True(t, target.Valid(), "action %s has no target", action)
	}

	for _, state := range models.AllStates() {
		if state == models.StateArchived {
			continue
		}

		assert.NotEmpty(t, workflow.AllowedActions(state), "state %s is a dead end", state)
	}
}

func TestPermittedRoles(t *testing.T) {
	t.Parallel()

	assert.True(t, workflow.IsPermitted(models.ActionSubmitForReview, models.RoleContributor))
	assert.True(t, workflow.IsPermitted(models.ActionSubmitForReview, models.RoleAdmin))

	for _, action := range []models.WorkflowAction{
		models.ActionApprove,
		models.ActionReject,
		models.ActionPublish,
		models.ActionArchive,
		models.ActionReturnToDraft,
	} {
		assert.False(t, workflow.IsPermitted(action, models.RoleContributor), action.String())
		assert.False(t, workflow.IsPermitted(action, models.RoleAuthor), action.String())
		assert.True(t, workflow.IsPermitted(action, models.RoleEditor), action.String())
		assert.True(t, workflow.IsPermitted(action, models.RoleAdmin), action.String())
	}

	assert.False(t, workflow.IsPermitted(models.ActionApprove, models.Role("GUEST")))
}

func TestAllowedActionsReturnsCopy(t *testing.T) {
	t.Parallel()

	actions := workflow.AllowedActions(models.StateDraft)
	require.NotEmpty(t, actions)
	actions[0] = models.ActionPublish

	assert.Equal(t, models.ActionSubmitForReview, workflow.AllowedActions(models.StateDraft)[0])
}

func TestConcurrentLookups(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for _, state := range models.AllStates() {
				for _, action := range models.AllActions() {
					workflow.NextState(state, action)
					workflow.PermittedRoles(action)
				}
			}
		}()
	}

	wg.Wait()
}
