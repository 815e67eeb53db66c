package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/editorial/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		postErr := persistence.NewPostError("GetPost", "post-123", persistence.ErrPostNotFound)
		versionErr := persistence.NewVersionError("GetVersion", "", "version-456", persistence.ErrVersionNotFound)

		assert.True(t, persistence.IsPostNotFound(postErr))
		assert.True(t, persistence.IsVersionNotFound(versionErr))
		assert.False(t, persistence.IsPostNotFound(versionErr))

		assert.True(t, errors.Is(postErr, persistence.ErrPostNotFound))
		assert.True(t, errors.Is(versionErr, persistence.ErrVersionNotFound))
	})

	t.Run("conflicts are recognised through wrapping", func(t *testing.T) {
		stateErr := persistence.NewPostError("ApplyTransition", "post-1", persistence.ErrStateConflict)
		versionErr := persistence.NewVersionError("CreateVersion", "post-1", "", persistence.ErrVersionConflict)

		assert.True(t, persistence.IsConflict(stateErr))
		assert.True(t, persistence.IsConflict(versionErr))
		assert.False(t, persistence.IsConflict(persistence.ErrPostNotFound))
	})

	t.Run("post error contains context", func(t *testing.T) {
		err := persistence.NewPostError("ApplyTransition", "post-123", persistence.ErrStateConflict)

		assert.Contains(t, err.Error(), "ApplyTransition")
		assert.Contains(t, err.Error(), "post-123")
		assert.Contains(t, err.Error(), "workflow state changed concurrently")
	})

	t.Run("version error names the version or the post", func(t *testing.T) {
		byID := persistence.NewVersionError("GetVersion", "", "version-9", persistence.ErrVersionNotFound)
		byPost := persistence.NewVersionError("ListVersions", "post-7", "", errors.New("boom"))

		assert.Contains(t, byID.Error(), "version-9")
		assert.Contains(t, byPost.Error(), "post-7")
	})
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{limit: 0, offset: 0, wantLimit: persistence.DefaultPageSize, wantOffset: 0},
		{limit: -5, offset: 10, wantLimit: persistence.DefaultPageSize, wantOffset: 10},
		{limit: 50, offset: -1, wantLimit: 50, wantOffset: 0},
		{limit: persistence.MaxPageSize, offset: 3, wantLimit: persistence.MaxPageSize, wantOffset: 3},
		{limit: 500, offset: 0, wantLimit: persistence.MaxPageSize, wantOffset: 0},
	}

	for _, tt := range tests {
		limit, offset := persistence.NormalizePage(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}
