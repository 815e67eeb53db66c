package cmd

import (
	"log/slog"

	"github.com/dukex/editorial/pkg/audit"
	"github.com/dukex/editorial/pkg/eventbus"
)

// NewAuditSink logs every audit entry and forwards it on the event bus.
func NewAuditSink(logger *slog.Logger, eventBus eventbus.EventBus) audit.Sink {
	return audit.Multi{
		audit.NewLogSink(logger.With("module", "audit")),
		audit.NewEventSink(eventBus),
	}
}
