package file_test

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/dukex/editorial/pkg/persistence/file"
	"github.com/dukex/editorial/pkg/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestFilePersistence(t *testing.T) {
	suite.Run(t, &persistencetest.Suite{
		NewStore: func() persistence.Persistence {
			return file.NewPersistence(t.TempDir())
		},
	})
}

func TestNewPersistence_StripsScheme(t *testing.T) {
	dir := t.TempDir()
	store := file.NewPersistence("file://" + dir)

	require.NoError(t, store.PostRepository().SavePost(t.Context(), &models.Post{ID: "p1", AuthorID: "a"}))

	_, err := os.Stat(filepath.Join(dir, "posts", "p1.json"))
	assert.NoError(t, err)
}

func TestHealthCheck_MissingRoot(t *testing.T) {
	store := file.NewPersistence(filepath.Join(t.TempDir(), "does-not-exist"))

	assert.Error(t, store.HealthCheck(t.Context()))
}

func TestSavePost_RejectsPathLikeIDs(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	err := store.PostRepository().SavePost(t.Context(), &models.Post{ID: "../escape", AuthorID: "a"})
	assert.ErrorIs(t, err, persistence.ErrInvalidPost)

	_, err = store.PostRepository().GetPost(t.Context(), "../escape")
	assert.True(t, persistence.IsPostNotFound(err))
}

func TestSavePost_KeepsHistory(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := t.Context()

	post := &models.Post{ID: "p1", AuthorID: "a", Title: "one"}
	require.NoError(t, store.PostRepository().SavePost(ctx, post))
	require.NoError(t, store.VersionRepository().CreateVersion(ctx, &models.ContentVersion{ID: "v1", PostID: "p1", Title: "one"}))

	post.Title = "renamed"
	require.NoError(t, store.PostRepository().SavePost(ctx, post))

	versions, err := store.VersionRepository().ListVersions(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestApplyTransition_SharedRootAcrossInstances(t *testing.T) {
	root := t.TempDir()
	stores := []*file.Persistence{file.NewPersistence(root), file.NewPersistence(root)}
	ctx := t.Context()

	const trials = 50

	for trial := range trials {
		post := &models.Post{ID: "p" + strconv.Itoa(trial), AuthorID: "a", WorkflowState: models.StateReview}
		require.NoError(t, stores[0].PostRepository().SavePost(ctx, post))

		var (
			wg   sync.WaitGroup
			errs = make([]error, len(stores))
		)

		for i, store := range stores {
			wg.Add(1)

			go func() {
				defer wg.Done()

				errs[i] = store.PostRepository().ApplyTransition(ctx, persistence.TransitionWrite{
					PostID: post.ID,
					From:   models.StateReview,
					To:     models.StateApproved,
					Record: &models.WorkflowTransition{
						ID:        post.ID + "-" + strconv.Itoa(i),
						PostID:    post.ID,
						FromState: models.StateReview,
						ToState:   models.StateApproved,
						Action:    models.ActionApprove,
						UserID:    "editor",
						Timestamp: time.Now().UTC(),
					},
				})
			}()
		}

		wg.Wait()

		wins := 0

		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				assert.True(t, persistence.IsConflict(err), "unexpected error: %v", err)
			}
		}

		require.Equal(t, 1, wins, "trial %d", trial)

		transitions, err := stores[1].TransitionRepository().ListByPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, transitions, 1, "trial %d", trial)
	}
}

func TestCreateVersion_SharedRootAcrossInstances(t *testing.T) {
	root := t.TempDir()
	stores := []*file.Persistence{file.NewPersistence(root), file.NewPersistence(root)}
	ctx := t.Context()

	require.NoError(t, stores[0].PostRepository().SavePost(ctx, &models.Post{ID: "p1", AuthorID: "a"}))

	const perStore = 10

	var wg sync.WaitGroup

	for i, store := range stores {
		for j := range perStore {
			wg.Add(1)

			go func() {
				defer wg.Done()

				assert.NoError(t, store.VersionRepository().CreateVersion(ctx, &models.ContentVersion{
					ID:     "v" + strconv.Itoa(i) + "-" + strconv.Itoa(j),
					PostID: "p1",
					Title:  "t",
				}))
			}()
		}
	}

	wg.Wait()

	versions, err := stores[0].VersionRepository().ListVersions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2*perStore)

	active := 0

	for i, version := range versions {
		assert.Equal(t, 2*perStore-i, version.Version)

		if version.IsActive {
			active++
		}
	}

	assert.Equal(t, 1, active)
}
