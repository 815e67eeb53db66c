package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/dukex/editorial/pkg/audit"
	"github.com/dukex/editorial/pkg/events"
	"github.com/dukex/editorial/pkg/mocks"
	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/dukex/editorial/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateVersion_DefaultsToPostContent(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t, testutil.WithContent("Original", "Body", testutil.Ptr("Teaser")))
	service := NewVersions(f.deps)

	version, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{
		Content:  testutil.Ptr("Edited body"),
		Metadata: map[string]any{"source": "editor"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, version.ID)
	assert.Equal(t, post.ID, version.PostID)
	assert.Equal(t, 1, version.Version)
	assert.True(t, version.IsActive)
	assert.Equal(t, "Original", version.Title)
	assert.Equal(t, "Edited body", version.Content)
	require.NotNil(t, version.Excerpt)
	assert.Equal(t, "Teaser", *version.Excerpt)
	assert.Equal(t, "alice", version.CreatedBy)
	assert.Equal(t, "editor", version.Metadata["source"])
	assert.True(t, testNow.Equal(version.CreatedAt))

	stored := f.post(t, post.ID)
	assert.Equal(t, "Original", stored.Title)
	assert.Equal(t, "Edited body", stored.Content)
}

func TestCreateVersion_DoesNotAliasInputMetadata(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)
	metadata := map[string]any{"source": "editor"}

	version, err := NewVersions(f.deps).CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{Metadata: metadata})
	require.NoError(t, err)

	metadata["source"] = "changed"
	assert.Equal(t, "editor", version.Metadata["source"])
}

func TestCreateVersion_SequenceHasOneActive(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)
	service := NewVersions(f.deps)

	for _, title := range []string{"one", "two", "three"} {
		_, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{Title: &title})
		require.NoError(t, err)
	}

	history, err := service.GetVersionHistory(t.Context(), post.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, []int{3, 2, 1}, versionNumbers(history))
	assert.Equal(t, []bool{true, false, false}, activeFlags(history))
	assert.Equal(t, "three", history[0].Title)
	assert.Equal(t, "three", f.post(t, post.ID).Title)
}

func TestCreateVersion_Concurrent(t *testing.T) {
	tests := []struct {
		name   string
		shared bool
	}{
		{name: "one store service", shared: true},
		{name: "independent services", shared: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			post := f.seed(t)
			shared := NewVersions(f.deps)

			const writers = 20

			var wg sync.WaitGroup

			errs := make(chan error, writers)

			for range writers {
				wg.Add(1)

				go func() {
					defer wg.Done()

					service := shared
					if !tt.shared {
						service = NewVersions(f.deps)
					}

					_, err := service.CreateVersion(context.Background(), post.ID, "alice", models.VersionInput{})
					errs <- err
				}()
			}

			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}

			history, err := shared.GetVersionHistory(t.Context(), post.ID)
			require.NoError(t, err)
			require.Len(t, history, writers)

			numbers := versionNumbers(history)
			slices.Sort(numbers)

			for i, number := range numbers {
				assert.Equal(t, i+1, number)
			}

			active := 0

			for _, version := range history {
				if version.IsActive {
					active++
				}
			}

			assert.Equal(t, 1, active)
			assert.Equal(t, writers, history[0].Version)
			assert.True(t, history[0].IsActive)
		})
	}
}

func TestCreateVersion_PostNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := NewVersions(f.deps).CreateVersion(t.Context(), "missing", "alice", models.VersionInput{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestCreateVersion_RetriesOnceOnConflict(t *testing.T) {
	post := testutil.CreateTestPost()

	store := mocks.NewMockPersistence()
	store.Posts.On("GetPost", mock.Anything, post.ID).Return(post, nil)
	store.Versions.On("CreateVersion", mock.Anything, mock.Anything).
		Return(persistence.NewVersionError("CreateVersion", post.ID, "", persistence.ErrVersionConflict)).Once()
	store.Versions.On("CreateVersion", mock.Anything, mock.Anything).
		Return(nil).Once()

	version, err := NewVersions(Dependencies{Persistence: store, Logger: discardLogger()}).
		CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	assert.NotNil(t, version)
	store.Versions.AssertNumberOfCalls(t, "CreateVersion", 2)
}

func TestCreateVersion_ConflictAfterRetry(t *testing.T) {
	post := testutil.CreateTestPost()

	store := mocks.NewMockPersistence()
	store.Posts.On("GetPost", mock.Anything, post.ID).Return(post, nil)
	store.Versions.On("CreateVersion", mock.Anything, mock.Anything).Return(persistence.ErrVersionConflict)

	_, err := NewVersions(Dependencies{Persistence: store, Logger: discardLogger()}).
		CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.Error(t, err)

	assert.True(t, IsConflict(err))
	store.Versions.AssertNumberOfCalls(t, "CreateVersion", 2)
}

func TestCreateVersion_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)

	bus := &mocks.MockEventBus{}
	bus.On("GenerateID").Return("event-1")
	bus.On("Publish", mock.Anything, post.ID, mock.MatchedBy(func(event events.VersionCreated) bool {
		return event.Version == 1 && event.CreatedBy == "alice" && event.Type == events.VersionCreatedEvent
	})).Return(nil)

	deps := f.deps
	deps.Events = bus

	_, err := NewVersions(deps).CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	bus.AssertExpectations(t)
}

func TestGetVersionHistory_PostNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := NewVersions(f.deps).GetVersionHistory(t.Context(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestGetVersionHistory_Empty(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)

	history, err := NewVersions(f.deps).GetVersionHistory(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGetActiveVersion(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)
	service := NewVersions(f.deps)

	_, err := service.GetActiveVersion(t.Context(), post.ID)
	assert.True(t, IsNotFound(err))

	_, err = service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	second, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	active, err := service.GetActiveVersion(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	found, err := service.GetVersion(t.Context(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Version)

	_, err = service.GetVersion(t.Context(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestRestoreVersion_RoundTrip(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)

	sink := &mocks.MockAuditSink{}
	deps := f.deps
	deps.Audit = sink
	service := NewVersions(deps)

	first, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{
		Title:    testutil.Ptr("First title"),
		Content:  testutil.Ptr("First body"),
		Metadata: map[string]any{"source": "import"},
	})
	require.NoError(t, err)

	_, err = service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{
		Title:   testutil.Ptr("Second title"),
		Content: testutil.Ptr("Second body"),
	})
	require.NoError(t, err)

	sink.On("Log", mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == audit.ActionVersionRestored &&
			entry.Severity == audit.SeverityInfo &&
			entry.UserID == "editor-1" &&
			entry.PostID == post.ID &&
			entry.Details["restored_from"] == first.ID
	})).Return(nil).Once()

	restored, err := service.RestoreVersion(t.Context(), post.ID, first.ID, "editor-1")
	require.NoError(t, err)
	sink.AssertExpectations(t)

	assert.Equal(t, 3, restored.Version)
	assert.True(t, restored.IsActive)
	assert.Equal(t, "First title", restored.Title)
	assert.Equal(t, "First body", restored.Content)
	assert.Equal(t, "editor-1", restored.CreatedBy)
	assert.Equal(t, "import", restored.Metadata["source"])

	from, ok := restored.RestoredFrom()
	require.True(t, ok)
	assert.Equal(t, first.ID, from)

	history, err := service.GetVersionHistory(t.Context(), post.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []bool{true, false, false}, activeFlags(history))

	original := history[2]
	assert.Equal(t, first.ID, original.ID)
	assert.False(t, original.IsActive)
	assert.Equal(t, "First title", original.Title)
	_, ok = original.RestoredFrom()
	assert.False(t, ok)

	stored := f.post(t, post.ID)
	assert.Equal(t, "First title", stored.Title)
	assert.Equal(t, "First body", stored.Content)
}

func TestRestoreVersion_ForeignVersion(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)
	other := f.seed(t)
	service := NewVersions(f.deps)

	foreign, err := service.CreateVersion(t.Context(), other.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	_, err = service.RestoreVersion(t.Context(), post.ID, foreign.ID, "editor-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	history, err := service.GetVersionHistory(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRestoreVersion_UnknownVersion(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)

	_, err := NewVersions(f.deps).RestoreVersion(t.Context(), post.ID, "missing", "editor-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRestoreVersion_AuditFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)

	sink := &mocks.MockAuditSink{}
	sink.On("Log", mock.Anything, mock.Anything).Return(errors.New("audit store down"))

	deps := f.deps
	deps.Audit = sink
	service := NewVersions(deps)

	first, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	restored, err := service.RestoreVersion(t.Context(), post.ID, first.ID, "editor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Version)

	failure := <-f.effects.Failures()
	assert.Equal(t, "audit.log", failure.Effect)
	assert.ErrorIs(t, failure.Err, ErrAuditWriteFailed)
	assert.Equal(t, CodeAuditWriteFailed, KindOf(failure.Err))
}

func TestCompareVersions(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t, testutil.WithContent("Title", "Body", testutil.Ptr("Teaser")))
	service := NewVersions(f.deps)

	first, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	retitled, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{Title: testutil.Ptr("New title")})
	require.NoError(t, err)

	comparison, err := service.CompareVersions(t.Context(), first.ID, retitled.ID)
	require.NoError(t, err)

	assert.Equal(t, models.VersionDifferences{Title: true, Content: false, Excerpt: false}, comparison.Differences)
	assert.Equal(t, first.ID, comparison.Version1.ID)
	assert.Equal(t, retitled.ID, comparison.Version2.ID)

	emptyExcerpt, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{Excerpt: testutil.Ptr("")})
	require.NoError(t, err)

	comparison, err = service.CompareVersions(t.Context(), retitled.ID, emptyExcerpt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VersionDifferences{Excerpt: true}, comparison.Differences)

	comparison, err = service.CompareVersions(t.Context(), first.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VersionDifferences{}, comparison.Differences)
}

func TestCompareVersions_UnknownVersion(t *testing.T) {
	f := newFixture(t)
	post := f.seed(t)
	service := NewVersions(f.deps)

	version, err := service.CreateVersion(t.Context(), post.ID, "alice", models.VersionInput{})
	require.NoError(t, err)

	_, err = service.CompareVersions(t.Context(), version.ID, "missing")
	assert.True(t, IsNotFound(err))

	_, err = service.CompareVersions(t.Context(), "missing", version.ID)
	assert.True(t, IsNotFound(err))
}

func TestSameExcerpt(t *testing.T) {
	assert.True(t, sameExcerpt(nil, nil))
	assert.False(t, sameExcerpt(nil, testutil.Ptr("")))
	assert.False(t, sameExcerpt(testutil.Ptr(""), nil))
	assert.True(t, sameExcerpt(testutil.Ptr("a"), testutil.Ptr("a")))
	assert.False(t, sameExcerpt(testutil.Ptr("a"), testutil.Ptr("b")))
}

func versionNumbers(versions []*models.ContentVersion) []int {
	numbers := make([]int, 0, len(versions))
	for _, version := range versions {
		numbers = append(numbers, version.Version)
	}

	return numbers
}

func activeFlags(versions []*models.ContentVersion) []bool {
	flags := make([]bool, 0, len(versions))
	for _, version := range versions {
		flags = append(flags, version.IsActive)
	}

	return flags
}
