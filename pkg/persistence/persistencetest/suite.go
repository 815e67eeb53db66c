// Package persistencetest holds the behaviour every persistence backend must share.
package persistencetest

import (
	"context"
	"sync"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// Suite runs the shared contract against a fresh store per test.
type Suite struct {
	suite.Suite

	// NewStore returns an empty store. It is called before each test.
	NewStore func() persistence.Persistence

	store persistence.Persistence
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *Suite) TearDownTest() {
	s.NoError(s.store.Close(s.ctx))
}

func (s *Suite) seedPost(state models.WorkflowState) *models.Post {
	post := &models.Post{
		ID:            uuid.NewString(),
		AuthorID:      "author-1",
		CategoryID:    "news",
		Title:         "Original title",
		Content:       "Original content",
		WorkflowState: state,
	}

	s.Require().NoError(s.store.PostRepository().SavePost(s.ctx, post))

	return post
}

func transitionRecord(postID string, from, to models.WorkflowState, action models.WorkflowAction, at time.Time) *models.WorkflowTransition {
	return &models.WorkflowTransition{
		ID:        uuid.NewString(),
		PostID:    postID,
		FromState: from,
		ToState:   to,
		Action:    action,
		UserID:    "editor-1",
		Timestamp: at,
	}
}

func (s *Suite) TestHealthCheck() {
	s.NoError(s.store.HealthCheck(s.ctx))
}

func (s *Suite) TestGetPost_NotFound() {
	_, err := s.store.PostRepository().GetPost(s.ctx, "missing")
	s.True(persistence.IsPostNotFound(err))
}

func (s *Suite) TestSavePost_DefaultsAndRoundTrip() {
	post := &models.Post{ID: uuid.NewString(), AuthorID: "a", Title: "t", Content: "c"}
	s.Require().NoError(s.store.PostRepository().SavePost(s.ctx, post))

	loaded, err := s.store.PostRepository().GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(models.StateDraft, loaded.WorkflowState)
	s.Equal(models.PostStatusDraft, loaded.Status)
	s.Equal("t", loaded.Title)
	s.False(loaded.CreatedAt.IsZero())
}

func (s *Suite) TestApplyTransition_SwapsStateAndAppendsRecord() {
	post := s.seedPost(models.StateApproved)
	now := time.Now().UTC().Truncate(time.Millisecond)

	record := transitionRecord(post.ID, models.StateApproved, models.StatePublished, models.ActionPublish, now)
	err := s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
		PostID:      post.ID,
		From:        models.StateApproved,
		To:          models.StatePublished,
		PublishedAt: &now,
		Record:      record,
	})
	s.Require().NoError(err)

	loaded, err := s.store.PostRepository().GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(models.StatePublished, loaded.WorkflowState)
	s.Require().NotNil(loaded.PublishedAt)
	s.True(now.Equal(*loaded.PublishedAt))

	transitions, err := s.store.TransitionRepository().ListByPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(transitions, 1)
	s.Equal(record.ID, transitions[0].ID)
	s.Equal(models.ActionPublish, transitions[0].Action)
	s.Equal(models.StateApproved, transitions[0].FromState)
}

func (s *Suite) TestApplyTransition_ConflictWritesNothing() {
	post := s.seedPost(models.StateReview)

	err := s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
		PostID: post.ID,
		From:   models.StateDraft,
		To:     models.StateReview,
		Record: transitionRecord(post.ID, models.StateDraft, models.StateReview, models.ActionSubmitForReview, time.Now().UTC()),
	})
	s.True(persistence.IsConflict(err))

	loaded, err := s.store.PostRepository().GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(models.StateReview, loaded.WorkflowState)

	transitions, err := s.store.TransitionRepository().ListByPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Empty(transitions)
}

func (s *Suite) TestApplyTransition_MissingPost() {
	err := s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
		PostID: "missing",
		From:   models.StateDraft,
		To:     models.StateReview,
		Record: transitionRecord("missing", models.StateDraft, models.StateReview, models.ActionSubmitForReview, time.Now().UTC()),
	})
	s.True(persistence.IsPostNotFound(err))
}

func (s *Suite) TestConcurrentApplyTransition_OnlyOneWins() {
	post := s.seedPost(models.StateReview)

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
				PostID: post.ID,
				From:   models.StateReview,
				To:     models.StateApproved,
				Record: transitionRecord(post.ID, models.StateReview, models.StateApproved, models.ActionApprove, time.Now().UTC()),
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				wins++
			case persistence.IsConflict(err):
				conflicts++
			}
		}()
	}

	wg.Wait()

	s.Equal(1, wins)
	s.Equal(workers-1, conflicts)

	transitions, err := s.store.TransitionRepository().ListByPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Len(transitions, 1)
}

func (s *Suite) TestListByPost_NewestFirstWithTieBreak() {
	post := s.seedPost(models.StateDraft)
	at := time.Now().UTC().Truncate(time.Millisecond)

	steps := []struct {
		from, to models.WorkflowState
		action   models.WorkflowAction
	}{
		{models.StateDraft, models.StateReview, models.ActionSubmitForReview},
		{models.StateReview, models.StateDraft, models.ActionReturnToDraft},
		{models.StateDraft, models.StateReview, models.ActionSubmitForReview},
	}

	ids := make([]string, 0, len(steps))

	for _, step := range steps {
		record := transitionRecord(post.ID, step.from, step.to, step.action, at)
		ids = append(ids, record.ID)

		s.Require().NoError(s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
			PostID: post.ID,
			From:   step.from,
			To:     step.to,
			Record: record,
		}))
	}

	transitions, err := s.store.TransitionRepository().ListByPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(transitions, 3)
	s.Equal(ids[2], transitions[0].ID)
	s.Equal(ids[1], transitions[1].ID)
	s.Equal(ids[0], transitions[2].ID)
}

func (s *Suite) TestListSince_FiltersByTime() {
	post := s.seedPost(models.StateDraft)
	old := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Millisecond)
	recent := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
		PostID: post.ID, From: models.StateDraft, To: models.StateReview,
		Record: transitionRecord(post.ID, models.StateDraft, models.StateReview, models.ActionSubmitForReview, old),
	}))
	s.Require().NoError(s.store.PostRepository().ApplyTransition(s.ctx, persistence.TransitionWrite{
		PostID: post.ID, From: models.StateReview, To: models.StateApproved,
		Record: transitionRecord(post.ID, models.StateReview, models.StateApproved, models.ActionApprove, recent),
	}))

	transitions, err := s.store.TransitionRepository().ListSince(s.ctx, recent.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().Len(transitions, 1)
	s.Equal(models.ActionApprove, transitions[0].Action)
}

func (s *Suite) TestListSince_TiesFollowInsertionOrderAcrossPosts() {
	first := s.seedPost(models.StateDraft)
	second := s.seedPost(models.StateDraft)
	at := time.Now().UTC().Truncate(time.Millisecond)

	writes := []persistence.TransitionWrite{
		{PostID: first.ID, From: models.StateDraft, To: models.StateReview,
			Record: transitionRecord(first.ID, models.StateDraft, models.StateReview, models.ActionSubmitForReview, at)},
		{PostID: first.ID, From: models.StateReview, To: models.StateApproved,
			Record: transitionRecord(first.ID, models.StateReview, models.StateApproved, models.ActionApprove, at)},
		{PostID: second.ID, From: models.StateDraft, To: models.StateReview,
			Record: transitionRecord(second.ID, models.StateDraft, models.StateReview, models.ActionSubmitForReview, at)},
	}

	for _, write := range writes {
		s.Require().NoError(s.store.PostRepository().ApplyTransition(s.ctx, write))
	}

	transitions, err := s.store.TransitionRepository().ListSince(s.ctx, at.Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().Len(transitions, 3)
	s.Equal(writes[2].Record.ID, transitions[0].ID)
	s.Equal(writes[1].Record.ID, transitions[1].ID)
	s.Equal(writes[0].Record.ID, transitions[2].ID)
	s.Greater(transitions[0].Seq, transitions[1].Seq)
}

func (s *Suite) TestListPostsAndCountByState() {
	s.seedPost(models.StateDraft)
	s.seedPost(models.StateDraft)
	s.seedPost(models.StateReview)

	state := models.StateDraft
	page, err := s.store.PostRepository().ListPosts(s.ctx, persistence.ListPostsOptions{State: &state, Limit: 1})
	s.Require().NoError(err)
	s.Len(page.Posts, 1)
	s.Equal(int64(2), page.TotalCount)
	s.True(page.HasNextPage)

	page, err = s.store.PostRepository().ListPosts(s.ctx, persistence.ListPostsOptions{State: &state, Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Len(page.Posts, 1)
	s.False(page.HasNextPage)

	page, err = s.store.PostRepository().ListPosts(s.ctx, persistence.ListPostsOptions{AuthorID: "nobody"})
	s.Require().NoError(err)
	s.Empty(page.Posts)

	counts, err := s.store.PostRepository().CountByState(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), counts[models.StateDraft])
	s.Equal(int64(1), counts[models.StateReview])
}

func (s *Suite) TestCreateVersion_SequenceAndSingleActive() {
	post := s.seedPost(models.StateDraft)

	for i := range 3 {
		version := &models.ContentVersion{
			ID:        uuid.NewString(),
			PostID:    post.ID,
			Title:     "Title",
			Content:   "Content " + string(rune('A'+i)),
			Metadata:  map[string]any{"source": "test"},
			CreatedBy: "author-1",
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}

		s.Require().NoError(s.store.VersionRepository().CreateVersion(s.ctx, version))
		s.Equal(i+1, version.Version)
		s.True(version.IsActive)
	}

	versions, err := s.store.VersionRepository().ListVersions(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 3)
	s.Equal(3, versions[0].Version)
	s.True(versions[0].IsActive)
	s.False(versions[1].IsActive)
	s.False(versions[2].IsActive)
	s.Equal("test", versions[0].Metadata["source"])

	loaded, err := s.store.PostRepository().GetPost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal("Content C", loaded.Content)

	byID, err := s.store.VersionRepository().GetVersion(s.ctx, versions[2].ID)
	s.Require().NoError(err)
	s.Equal(1, byID.Version)
}

func (s *Suite) TestCreateVersion_MissingPost() {
	err := s.store.VersionRepository().CreateVersion(s.ctx, &models.ContentVersion{
		ID:        uuid.NewString(),
		PostID:    "missing",
		CreatedAt: time.Now().UTC(),
	})
	s.True(persistence.IsPostNotFound(err))
}

func (s *Suite) TestGetVersion_NotFound() {
	_, err := s.store.VersionRepository().GetVersion(s.ctx, uuid.NewString())
	s.True(persistence.IsVersionNotFound(err))
}
