// Package cache provides the advisory read-through cache used by the history
// and statistics readers. A cache failure never fails the caller: reads fall
// back to recomputing and writes are logged and dropped.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by caches used after Close.
var ErrClosed = errors.New("cache closed")

// Cache stores opaque byte values under string keys with a time to live.
type Cache interface {
	// Get returns the value and true on a hit, and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// StampTTL bounds how long an invalidation stamp is remembered. It must
// outlive the slowest compute passed to Fetch.
const StampTTL = 24 * time.Hour

const stampPrefix = "stamp:"

// StampKey is the cache key holding guard's invalidation stamp.
func StampKey(guard string) string {
	return stampPrefix + guard
}

// Bump marks every value stored under guard as stale. Invalidators call it
// before deleting the entries, so a Fetch whose compute overlapped the
// invalidation does not keep its result.
func Bump(ctx context.Context, cache Cache, guard string) error {
	return cache.Set(ctx, StampKey(guard), []byte(uuid.NewString()), StampTTL)
}

func readStamp(ctx context.Context, cache Cache, guard string) (string, error) {
	raw, hit, err := cache.Get(ctx, StampKey(guard))
	if err != nil || !hit {
		return "", err
	}

	return string(raw), nil
}

// Fetch reads key through cache, computing and storing the value on a miss.
// The entry is guarded by its own key; see FetchGuarded.
func Fetch[T any](
	ctx context.Context,
	cache Cache,
	logger *slog.Logger,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	return FetchGuarded(ctx, cache, logger, key, key, ttl, compute)
}

// FetchGuarded is Fetch for an entry invalidated through guard. A computed
// value is dropped again when guard was bumped while it was being computed.
// Cache errors and undecodable entries degrade to calling compute.
func FetchGuarded[T any](
	ctx context.Context,
	cache Cache,
	logger *slog.Logger,
	key, guard string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	raw, hit, err := cache.Get(ctx, key)

	switch {
	case err != nil:
		logger.WarnContext(ctx, "cache read failed, recomputing", "key", key, "error", err)

		return compute(ctx)
	case hit:
		var cached T

		err = json.Unmarshal(raw, &cached)
		if err == nil {
			return cached, nil
		}

		logger.WarnContext(ctx, "cache entry undecodable, recomputing", "key", key, "error", err)
	}

	before, err := readStamp(ctx, cache, guard)
	if err != nil {
		logger.WarnContext(ctx, "cache stamp read failed, not caching", "key", key, "error", err)

		return compute(ctx)
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		logger.WarnContext(ctx, "cache entry unencodable", "key", key, "error", err)

		return value, nil
	}

	err = cache.Set(ctx, key, encoded, ttl)
	if err != nil {
		logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)

		return value, nil
	}

	after, err := readStamp(ctx, cache, guard)
	if err != nil || after != before {
		err = cache.Delete(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "stale cache entry not removed", "key", key, "error", err)
		}
	}

	return value, nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }

func (Noop) DeletePrefix(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
