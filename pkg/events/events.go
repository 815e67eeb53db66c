// Package events defines the domain events emitted by the editorial engine.
package events

import (
	"time"

	"github.com/dukex/editorial/pkg/models"
)

type EventType string

// Topic every editorial event is published on.
const Topic = "editorial.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	PostTransitionedEvent EventType = "post.transitioned"
	VersionCreatedEvent   EventType = "version.created"
	VersionRestoredEvent  EventType = "version.restored"
	AuditRecordedEvent    EventType = "audit.recorded"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	PostID    string         `json:"post_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps the common event fields.
func NewBaseEvent(id string, eventType EventType, postID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: at,
		PostID:    postID,
	}
}

// PostTransitioned is emitted after a workflow transition is committed.
type PostTransitioned struct {
	BaseEvent

	TransitionID string                `json:"transition_id"`
	FromState    models.WorkflowState  `json:"from_state"`
	ToState      models.WorkflowState  `json:"to_state"`
	Action       models.WorkflowAction `json:"action"`
	UserID       string                `json:"user_id"`
	Comment      *string               `json:"comment,omitempty"`
}

func (e PostTransitioned) GetType() EventType {
	return PostTransitionedEvent
}

// VersionCreated is emitted after a content version becomes active.
type VersionCreated struct {
	BaseEvent

	VersionID string `json:"version_id"`
	Version   int    `json:"version"`
	CreatedBy string `json:"created_by"`
}

func (e VersionCreated) GetType() EventType {
	return VersionCreatedEvent
}

// VersionRestored is emitted after an older version is copied into a new one.
type VersionRestored struct {
	BaseEvent

	VersionID    string `json:"version_id"`
	Version      int    `json:"version"`
	RestoredFrom string `json:"restored_from"`
	UserID       string `json:"user_id"`
}

func (e VersionRestored) GetType() EventType {
	return VersionRestoredEvent
}

// AuditRecorded carries an audit entry to downstream consumers.
type AuditRecorded struct {
	BaseEvent

	Action   string         `json:"action"`
	Severity string         `json:"severity"`
	UserID   string         `json:"user_id"`
	Details  map[string]any `json:"details,omitempty"`
}

func (e AuditRecorded) GetType() EventType {
	return AuditRecordedEvent
}
