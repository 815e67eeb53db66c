package mocks

import (
	"context"
	"time"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Posts       *MockPostRepository
	Transitions *MockTransitionRepository
	Versions    *MockVersionRepository
}

// NewMockPersistence returns a MockPersistence with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Posts:       &MockPostRepository{},
		Transitions: &MockTransitionRepository{},
		Versions:    &MockVersionRepository{},
	}
}

func (m *MockPersistence) PostRepository() persistence.PostRepository {
	return m.Posts
}

func (m *MockPersistence) TransitionRepository() persistence.TransitionRepository {
	return m.Transitions
}

func (m *MockPersistence) VersionRepository() persistence.VersionRepository {
	return m.Versions
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockPostRepository is a mock implementation of persistence.PostRepository interface.
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) SavePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)

	return args.Error(0)
}

func (m *MockPostRepository) ListPosts(ctx context.Context, opts persistence.ListPostsOptions) (*persistence.PostListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.PostListResult), args.Error(1)
}

func (m *MockPostRepository) CountByState(ctx context.Context) (map[models.WorkflowState]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[models.WorkflowState]int64), args.Error(1)
}

func (m *MockPostRepository) ApplyTransition(ctx context.Context, write persistence.TransitionWrite) error {
	args := m.Called(ctx, write)

	return args.Error(0)
}

// MockTransitionRepository is a mock implementation of persistence.TransitionRepository interface.
type MockTransitionRepository struct {
	mock.Mock
}

func (m *MockTransitionRepository) ListByPost(ctx context.Context, postID string) ([]*models.WorkflowTransition, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowTransition), args.Error(1)
}

func (m *MockTransitionRepository) ListSince(ctx context.Context, since time.Time) ([]*models.WorkflowTransition, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowTransition), args.Error(1)
}

// MockVersionRepository is a mock implementation of persistence.VersionRepository interface.
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) CreateVersion(ctx context.Context, version *models.ContentVersion) error {
	args := m.Called(ctx, version)

	return args.Error(0)
}

func (m *MockVersionRepository) GetVersion(ctx context.Context, versionID string) (*models.ContentVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ContentVersion), args.Error(1)
}

func (m *MockVersionRepository) ListVersions(ctx context.Context, postID string) ([]*models.ContentVersion, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ContentVersion), args.Error(1)
}
