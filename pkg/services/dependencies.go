package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukex/editorial/pkg/audit"
	"github.com/dukex/editorial/pkg/cache"
	"github.com/dukex/editorial/pkg/effects"
	"github.com/dukex/editorial/pkg/eventbus"
	"github.com/dukex/editorial/pkg/otelhelper"
	"github.com/dukex/editorial/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultHistoryTTL = 5 * time.Minute
	DefaultStatsTTL   = time.Minute

	historyKeyPrefix = "workflow:history:"
	statsKeyPrefix   = "workflow:stats:"
)

// HistoryCacheKey is the cache key of a post's transition history.
func HistoryCacheKey(postID string) string {
	return historyKeyPrefix + postID
}

// Dependencies are the collaborators shared by the editorial services.
// Persistence is required; every other field has a working default.
type Dependencies struct {
	Persistence persistence.Persistence
	Cache       cache.Cache
	Audit       audit.Sink
	Events      eventbus.EventBus
	Effects     *effects.Runner
	Locks       *PostLocks
	Tracer      trace.Tracer
	Logger      *slog.Logger
	Clock       func() time.Time

	HistoryTTL time.Duration
	StatsTTL   time.Duration
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}

	if d.Audit == nil {
		d.Audit = audit.NewLogSink(d.Logger)
	}

	if d.Events == nil {
		d.Events = eventbus.NoopEventBus{}
	}

	if d.Effects == nil {
		d.Effects = effects.NewRunner(d.Logger, 0)
	}

	if d.Locks == nil {
		d.Locks = NewPostLocks()
	}

	if d.Tracer == nil {
		d.Tracer = otelhelper.Tracer("editorial")
	}

	if d.Clock == nil {
		d.Clock = time.Now
	}

	if d.HistoryTTL <= 0 {
		d.HistoryTTL = DefaultHistoryTTL
	}

	if d.StatsTTL <= 0 {
		d.StatsTTL = DefaultStatsTTL
	}

	return d
}

func (d Dependencies) now() time.Time {
	return d.Clock().UTC()
}

// nolint:spancheck // spans are ended by the caller
func (d Dependencies) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otelhelper.StartSpan(ctx, d.Tracer, name, attrs...)
}

// finishSpan records err on span, if any, and ends it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		otelhelper.SetError(span, err, attribute.String("error.kind", KindOf(err)))
	}

	span.End()
}

// invalidate drops the cached views touched by a change to postID. Each guard
// is bumped before its entries go, so reads already in flight do not
// store what they computed.
func (d Dependencies) invalidate(ctx context.Context, postID string) {
	d.Effects.Run(ctx, "cache.invalidate", HistoryCacheKey(postID), func(ctx context.Context) error {
		return errors.Join(
			cache.Bump(ctx, d.Cache, HistoryCacheKey(postID)),
			d.Cache.Delete(ctx, HistoryCacheKey(postID)),
		)
	})

	d.Effects.Run(ctx, "cache.invalidate", statsKeyPrefix, func(ctx context.Context) error {
		return errors.Join(
			cache.Bump(ctx, d.Cache, statsKeyPrefix),
			d.Cache.DeletePrefix(ctx, statsKeyPrefix),
		)
	})
}

// publish sends event through the effects runner.
func (d Dependencies) publish(ctx context.Context, postID string, event eventbus.Event) {
	d.Effects.Run(ctx, "events.publish", string(event.GetType()), func(ctx context.Context) error {
		return d.Events.Publish(ctx, postID, event)
	})
}
