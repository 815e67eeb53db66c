package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/editorial/pkg/cache"
)

const cacheKeyPrefix = "editorial:"

// NewCache creates the read-through cache named by cacheURL. An in-memory
// cache comes with a started sweeper; the returned stop func closes both.
func NewCache(ctx context.Context, logger *slog.Logger, cacheURL, sweepSchedule string) (cache.Cache, func(), error) {
	provider, _, _ := strings.Cut(cacheURL, "://")

	switch provider {
	case "", "none":
		return cache.Noop{}, func() {}, nil
	case "memory":
		memory := cache.NewMemory()

		sweeper, err := cache.NewSweeper(memory, sweepSchedule, logger)
		if err != nil {
			return nil, nil, err
		}

		sweeper.Start()

		return memory, func() {
			sweeper.Stop()
			_ = memory.Close()
		}, nil
	case "redis", "rediss":
		redisCache, err := cache.NewRedis(ctx, cacheURL, cacheKeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		return redisCache, func() {
			err := redisCache.Close()
			if err != nil {
				logger.ErrorContext(ctx, "Failed to close redis cache", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache provider %q", provider)
	}
}
