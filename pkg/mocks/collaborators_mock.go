package mocks

import (
	"context"
	"time"

	"github.com/dukex/editorial/pkg/audit"
	"github.com/stretchr/testify/mock"
)

// MockAuditSink is a mock implementation of audit.Sink interface.
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Log(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)

	return args.Error(0)
}

// MockCache is a mock implementation of cache.Cache interface.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)

	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)

	return args.Error(0)
}

func (m *MockCache) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)

	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()

	return args.Error(0)
}
