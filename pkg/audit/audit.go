// Package audit provides the sinks that receive editorial audit entries.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukex/editorial/pkg/eventbus"
	"github.com/dukex/editorial/pkg/events"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ActionVersionRestored is logged when an older version is restored.
const ActionVersionRestored = "version_restored"

type Entry struct {
	Action    string         `json:"action"`
	Severity  Severity       `json:"severity"`
	UserID    string         `json:"user_id"`
	PostID    string         `json:"post_id"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives audit entries. Callers treat a returned error as non-fatal.
type Sink interface {
	Log(ctx context.Context, entry Entry) error
}

// LogSink writes entries to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Log(ctx context.Context, entry Entry) error {
	level := slog.LevelInfo

	switch entry.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityCritical:
		level = slog.LevelError
	}

	s.logger.Log(ctx, level, "audit",
		"action", entry.Action,
		"severity", string(entry.Severity),
		"user_id", entry.UserID,
		"post_id", entry.PostID,
		"details", entry.Details,
		"timestamp", entry.Timestamp,
	)

	return nil
}

// EventSink publishes entries as audit.recorded events.
type EventSink struct {
	bus eventbus.EventBus
}

func NewEventSink(bus eventbus.EventBus) *EventSink {
	return &EventSink{bus: bus}
}

func (s *EventSink) Log(ctx context.Context, entry Entry) error {
	return s.bus.Publish(ctx, entry.PostID, events.AuditRecorded{
		BaseEvent: events.NewBaseEvent(s.bus.GenerateID(), events.AuditRecordedEvent, entry.PostID, entry.Timestamp),
		Action:    entry.Action,
		Severity:  string(entry.Severity),
		UserID:    entry.UserID,
		Details:   entry.Details,
	})
}

// Multi fans an entry out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Log(ctx context.Context, entry Entry) error {
	errs := make([]error, 0, len(m))

	for _, sink := range m {
		err := sink.Log(ctx, entry)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
