package models_test

import (
	"encoding/json"
	"testing"

	"github.com/dukex/editorial/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkflowState(t *testing.T) {
	t.Parallel()

	state, err := models.ParseWorkflowState("review")
	require.NoError(t, err)
	assert.Equal(t, models.StateReview, state)

	_, err = models.ParseWorkflowState("pending")
	assert.Error(t, err)
}

func TestParseWorkflowAction(t *testing.T) {
	t.Parallel()

	action, err := models.ParseWorkflowAction(" submit_for_review ")
	require.NoError(t, err)
	assert.Equal(t, models.ActionSubmitForReview, action)

	_, err = models.ParseWorkflowAction("delete")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := models.ParseRole("editor")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, role)
	assert.True(t, role.Elevated())
	assert.False(t, models.RoleContributor.Elevated())

	_, err = models.ParseRole("root")
	assert.Error(t, err)
}

func TestWorkflowTransition_JSON(t *testing.T) {
	t.Parallel()

	comment := "looks good"
	transition := models.WorkflowTransition{
		ID:        "t-1",
		PostID:    "p-1",
		FromState: models.StateReview,
		ToState:   models.StateApproved,
		Action:    models.ActionApprove,
		UserID:    "u-1",
		Comment:   &comment,
	}

	data, err := json.Marshal(transition)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"from_state":"REVIEW"`)
	assert.Contains(t, string(data), `"action":"APPROVE"`)

	var decoded models.WorkflowTransition
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, models.StateApproved, decoded.ToState)
	assert.Equal(t, "looks good", *decoded.Comment)
}

func TestWorkflowStats_MapKeysUseNames(t *testing.T) {
	t.Parallel()

	stats := models.WorkflowStats{
		StateDistribution: map[models.WorkflowState]int64{models.StateDraft: 2},
		ActionCounts:      map[models.WorkflowAction]int64{models.ActionPublish: 1},
	}

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"DRAFT":2`)
	assert.Contains(t, string(data), `"PUBLISH":1`)

	var decoded models.WorkflowStats
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, int64(2), decoded.StateDistribution[models.StateDraft])
}

func TestWorkflowState_Scan(t *testing.T) {
	t.Parallel()

	var state models.WorkflowState
	require.NoError(t, state.Scan([]byte("PUBLISHED")))
	assert.Equal(t, models.StatePublished, state)

	assert.Error(t, state.Scan(42))

	_, err := models.WorkflowState(0).Value()
	assert.Error(t, err)
}

func TestParseStatsWindow(t *testing.T) {
	t.Parallel()

	window, err := models.ParseStatsWindow("")
	require.NoError(t, err)
	assert.Equal(t, models.WindowWeek, window)

	window, err = models.ParseStatsWindow("day")
	require.NoError(t, err)
	assert.Equal(t, models.WindowDay, window)

	_, err = models.ParseStatsWindow("year")
	assert.Error(t, err)
}

func TestContentVersion_RestoredFrom(t *testing.T) {
	t.Parallel()

	version := models.ContentVersion{Metadata: map[string]any{models.MetadataRestoredFrom: "v-1"}}
	id, ok := version.RestoredFrom()
	assert.True(t, ok)
	assert.Equal(t, "v-1", id)

	_, ok = (&models.ContentVersion{}).RestoredFrom()
	assert.False(t, ok)
}
