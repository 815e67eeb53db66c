// Package models defines the core domain models for the editorial workflow and content versioning.
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// WorkflowState is the editorial lifecycle stage of a post.
type WorkflowState uint8

const (
	StateDraft     WorkflowState = iota + 1 // Editable by its author
	StateReview                             // Waiting for an editor
	StateApproved                           // Accepted, not yet visible
	StatePublished                          // Live
	StateArchived                           // Terminal
	StateRejected                           // Sent back with a reason

	// StateCount is the number of slots needed to index a table by WorkflowState.
	StateCount = int(StateRejected) + 1
)

var stateNames = [StateCount]string{
	StateDraft:     "DRAFT",
	StateReview:    "REVIEW",
	StateApproved:  "APPROVED",
	StatePublished: "PUBLISHED",
	StateArchived:  "ARCHIVED",
	StateRejected:  "REJECTED",
}

// AllStates returns every workflow state in declaration order.
func AllStates() []WorkflowState {
	return []WorkflowState{StateDraft, StateReview, StateApproved, StatePublished, StateArchived, StateRejected}
}

func (s WorkflowState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("WorkflowState(%d)", uint8(s))
	}

	return stateNames[s]
}

// Valid reports whether s is one of the declared states.
func (s WorkflowState) Valid() bool {
	return s >= StateDraft && s <= StateRejected
}

// ParseWorkflowState parses a state name case-insensitively.
func ParseWorkflowState(name string) (WorkflowState, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, state := range AllStates() {
		if stateNames[state] == upper {
			return state, nil
		}
	}

	return 0, fmt.Errorf("unknown workflow state %q", name)
}

func (s WorkflowState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid workflow state %d", uint8(s))
	}

	return []byte(s.String()), nil
}

func (s *WorkflowState) UnmarshalText(text []byte) error {
	parsed, err := ParseWorkflowState(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Value stores the state by name.
func (s WorkflowState) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid workflow state %d", uint8(s))
	}

	return s.String(), nil
}

// Scan reads a state stored by name.
func (s *WorkflowState) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into WorkflowState", src)
	}
}

// WorkflowAction is a named move between workflow states.
type WorkflowAction uint8

const (
	ActionSubmitForReview WorkflowAction = iota + 1
	ActionApprove
	ActionReject
	ActionPublish
	ActionArchive
	ActionReturnToDraft

	// ActionCount is the number of slots needed to index a table by WorkflowAction.
	ActionCount = int(ActionReturnToDraft) + 1
)

var actionNames = [ActionCount]string{
	ActionSubmitForReview: "SUBMIT_FOR_REVIEW",
	ActionApprove:         "APPROVE",
	ActionReject:          "REJECT",
	ActionPublish:         "PUBLISH",
	ActionArchive:         "ARCHIVE",
	ActionReturnToDraft:   "RETURN_TO_DRAFT",
}

// AllActions returns every workflow action in declaration order.
func AllActions() []WorkflowAction {
	return []WorkflowAction{
		ActionSubmitForReview,
		ActionApprove,
		ActionReject,
		ActionPublish,
		ActionArchive,
		ActionReturnToDraft,
	}
}

func (a WorkflowAction) String() string {
	if !a.Valid() {
		return fmt.Sprintf("WorkflowAction(%d)", uint8(a))
	}

	return actionNames[a]
}

// Valid reports whether a is one of the declared actions.
func (a WorkflowAction) Valid() bool {
	return a >= ActionSubmitForReview && a <= ActionReturnToDraft
}

// ParseWorkflowAction parses an action name case-insensitively.
func ParseWorkflowAction(name string) (WorkflowAction, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, action := range AllActions() {
		if actionNames[action] == upper {
			return action, nil
		}
	}

	return 0, fmt.Errorf("unknown workflow action %q", name)
}

func (a WorkflowAction) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid workflow action %d", uint8(a))
	}

	return []byte(a.String()), nil
}

func (a *WorkflowAction) UnmarshalText(text []byte) error {
	parsed, err := ParseWorkflowAction(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Value stores the action by name.
func (a WorkflowAction) Value() (driver.Value, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid workflow action %d", uint8(a))
	}

	return a.String(), nil
}

// Scan reads an action stored by name.
func (a *WorkflowAction) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into WorkflowAction", src)
	}
}

// WorkflowTransition is the append-only audit record of one successful transition.
type WorkflowTransition struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	FromState WorkflowState  `json:"from_state"`
	ToState   WorkflowState  `json:"to_state"`
	Action    WorkflowAction `json:"action"`
	UserID    string         `json:"user_id"`
	Comment   *string        `json:"comment,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// Seq breaks timestamp ties in insertion order. Assigned by the store.
	Seq int64 `json:"seq"`
}
