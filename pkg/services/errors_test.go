package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/editorial/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestFromPersistence(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		code string
	}{
		{
			name: "post not found",
			err:  persistence.NewPostError("GetPost", "p1", persistence.ErrPostNotFound),
			kind: ErrNotFound,
			code: CodeNotFound,
		},
		{
			name: "version not found",
			err:  persistence.NewVersionError("GetVersion", "", "v1", persistence.ErrVersionNotFound),
			kind: ErrNotFound,
			code: CodeNotFound,
		},
		{
			name: "state conflict",
			err:  persistence.NewPostError("ApplyTransition", "p1", persistence.ErrStateConflict),
			kind: ErrConflict,
			code: CodeConflict,
		},
		{
			name: "version conflict",
			err:  persistence.ErrVersionConflict,
			kind: ErrConflict,
			code: CodeConflict,
		},
		{
			name: "anything else",
			err:  errors.New("dial tcp: connection refused"),
			kind: ErrStoreUnavailable,
			code: CodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromPersistence("Op", tt.err)

			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.err, "cause stays in the chain")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.code, KindOf(err))
		})
	}
}

func TestServiceError_Message(t *testing.T) {
	err := newError("ExecuteAction", ErrForbidden, "role may not approve", nil)
	assert.Equal(t, "ExecuteAction: role may not approve", err.Error())

	err = newError("GetPost", ErrStoreUnavailable, "", errors.New("timeout"))
	assert.Equal(t, "GetPost: store unavailable: timeout", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Empty(t, KindOf(nil))
	assert.Equal(t, CodeStoreUnavailable, KindOf(errors.New("boom")))
	assert.Equal(t, CodeIllegalTransition, KindOf(fmt.Errorf("wrapped: %w", ErrIllegalTransition)))

	wrapped := fmt.Errorf("handler: %w", newError("Op", ErrForbidden, "no", nil))
	assert.Equal(t, CodeForbidden, KindOf(wrapped))
	assert.True(t, IsForbidden(wrapped))
	assert.False(t, IsNotFound(wrapped))
}
