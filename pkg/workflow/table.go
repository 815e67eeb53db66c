// Package workflow holds the editorial transition table: which actions are legal
// from each state, where each action leads, and which roles may invoke it.
//
// The tables are fixed-size arrays indexed by the enum values, so lookups are
// allocation-free and safe for concurrent use without synchronisation.
package workflow

import (
	"slices"

	"github.com/dukex/editorial/pkg/models"
)

var allowedActions = [...][]models.WorkflowAction{
	models.StateDraft: {
		models.ActionSubmitForReview,
		models.ActionArchive,
	},
	models.StateReview: {
		models.ActionApprove,
		models.ActionReject,
		models.ActionReturnToDraft,
	},
	models.StateApproved: {
		models.ActionPublish,
		models.ActionReject,
		models.ActionReturnToDraft,
	},
	models.StatePublished: {
		models.ActionArchive,
		models.ActionReturnToDraft,
	},
	models.StateArchived: {},
	models.StateRejected: {
		models.ActionReturnToDraft,
		models.ActionArchive,
	},
}

var actionTargets = [...]models.WorkflowState{
	models.ActionSubmitForReview: models.StateReview,
	models.ActionApprove:         models.StateApproved,
	models.ActionReject:          models.StateRejected,
	models.ActionPublish:         models.StatePublished,
	models.ActionArchive:         models.StateArchived,
	models.ActionReturnToDraft:   models.StateDraft,
}

var elevated = []models.Role{models.RoleEditor, models.RoleAdmin}

var permittedRoles = [...][]models.Role{
	models.ActionSubmitForReview: {models.RoleContributor, models.RoleAuthor, models.RoleEditor, models.RoleAdmin},
	models.ActionApprove:         elevated,
	models.ActionReject:          elevated,
	models.ActionPublish:         elevated,
	models.ActionArchive:         elevated,
	models.ActionReturnToDraft:   elevated,
}

// Each table must have exactly one slot per enum value; adding a state or an
// action without extending the tables fails to compile.
var (
	_ = [1]struct{}{}[len(allowedActions)-models.StateCount]
	_ = [1]struct{}{}[len(actionTargets)-models.ActionCount]
	_ = [1]struct{}{}[len(permittedRoles)-models.ActionCount]
)

// AllowedActions returns the actions legal from state. Terminal and unknown
// states yield an empty set.
func AllowedActions(state models.WorkflowState) []models.WorkflowAction {
	if !state.Valid() {
		return []models.WorkflowAction{}
	}

	return slices.Clone(allowedActions[state])
}

// PermittedRoles returns the roles that may invoke action, independent of state.
func PermittedRoles(action models.WorkflowAction) []models.Role {
	if !action.Valid() {
		return []models.Role{}
	}

	return slices.Clone(permittedRoles[action])
}

// IsPermitted reports whether role may invoke action.
func IsPermitted(action models.WorkflowAction, role models.Role) bool {
	return action.Valid() && slices.Contains(permittedRoles[action], role)
}

// Target returns the state action leads to, regardless of where it starts.
func Target(action models.WorkflowAction) (models.WorkflowState, bool) {
	if !action.Valid() {
		return 0, false
	}

	return actionTargets[action], true
}

// NextState returns the state reached by applying action in state, or false
// when the action is not legal there.
func NextState(state models.WorkflowState, action models.WorkflowAction) (models.WorkflowState, bool) {
	if !state.Valid() || !action.Valid() {
		return 0, false
	}

	if !slices.Contains(allowedActions[state], action) {
		return 0, false
	}

	return actionTargets[action], true
}

// IsTerminal reports whether no action leaves state.
func IsTerminal(state models.WorkflowState) bool {
	return state.Valid() && len(allowedActions[state]) == 0
}
