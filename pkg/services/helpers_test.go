package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/editorial/pkg/cache"
	"github.com/dukex/editorial/pkg/effects"
	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence/file"
	"github.com/dukex/editorial/pkg/testutil"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *file.Persistence
	cache   *cache.Memory
	effects *effects.Runner
	deps    Dependencies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store := file.NewPersistence(t.TempDir())
	memory := cache.NewMemory()
	runner := effects.NewRunner(logger, 16)

	t.Cleanup(func() { _ = memory.Close() })

	return &fixture{
		store:   store,
		cache:   memory,
		effects: runner,
		deps: Dependencies{
			Persistence: store,
			Cache:       memory,
			Effects:     runner,
			Logger:      logger,
			Clock:       testutil.FixedClock(testNow),
		},
	}
}

func (f *fixture) seed(t *testing.T, overrides ...func(*models.Post)) *models.Post {
	t.Helper()

	post := testutil.CreateTestPost(overrides...)
	require.NoError(t, f.store.PostRepository().SavePost(t.Context(), post))

	return post
}

func (f *fixture) transitions(t *testing.T, postID string) []*models.WorkflowTransition {
	t.Helper()

	transitions, err := f.store.TransitionRepository().ListByPost(t.Context(), postID)
	require.NoError(t, err)

	return transitions
}

func (f *fixture) post(t *testing.T, postID string) *models.Post {
	t.Helper()

	post, err := f.store.PostRepository().GetPost(t.Context(), postID)
	require.NoError(t, err)

	return post
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
