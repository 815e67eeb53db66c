package cache

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the sweeper once a minute.
const DefaultSweepSchedule = "@every 1m"

// Sweeper periodically reclaims expired entries from a Memory cache.
type Sweeper struct {
	cron   *cron.Cron
	cache  *Memory
	logger *slog.Logger
}

// NewSweeper validates schedule (standard cron or @every descriptors) and
// registers the sweep job. Call Start to begin running it.
func NewSweeper(cache *Memory, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s := &Sweeper{
		cron:   cron.New(),
		cache:  cache,
		logger: logger,
	}

	_, err := s.cron.AddFunc(schedule, s.Run)
	if err != nil {
		return nil, fmt.Errorf("invalid cache sweep schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Run sweeps once.
func (s *Sweeper) Run() {
	removed := s.cache.Sweep()
	if removed > 0 {
		s.logger.Debug("swept expired cache entries", "removed", removed)
	}
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
