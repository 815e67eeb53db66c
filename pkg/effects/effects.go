// Package effects runs best-effort side effects such as cache invalidation,
// audit writes and event publishing. An effect is always attempted; its
// failure is logged and reported on a non-fatal channel, never returned.
package effects

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
	defaultBuffer  = 64
)

// Failure describes one side effect that did not complete.
type Failure struct {
	Effect string
	Key    string
	Err    error
	At     time.Time
}

// Runner executes side effects on behalf of a completed business operation.
type Runner struct {
	logger   *slog.Logger
	timeout  time.Duration
	failures chan Failure
}

// NewRunner creates a runner whose failure channel holds buffer entries.
// When the channel is full new failures are only logged.
func NewRunner(logger *slog.Logger, buffer int) *Runner {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Runner{
		logger:   logger,
		timeout:  defaultTimeout,
		failures: make(chan Failure, buffer),
	}
}

// Failures exposes failed effects to an optional observer.
func (r *Runner) Failures() <-chan Failure {
	return r.failures
}

// Run attempts fn once. The caller's cancellation does not abort the effect,
// since the operation it follows has already been committed.
func (r *Runner) Run(ctx context.Context, effect, key string, fn func(ctx context.Context) error) {
	effectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	err := r.call(effectCtx, fn)
	if err == nil {
		return
	}

	r.logger.WarnContext(ctx, "side effect failed", "effect", effect, "key", key, "error", err)

	select {
	case r.failures <- Failure{Effect: effect, Key: key, Err: err, At: time.Now().UTC()}:
	default:
	}
}

func (r *Runner) call(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("side effect panicked: %v", recovered)
		}
	}()

	return fn(ctx)
}
