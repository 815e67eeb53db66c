// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPostNotFound indicates a post was not found by the given identifier.
	ErrPostNotFound = errors.New("post not found")

	// ErrVersionNotFound indicates a content version was not found by the given identifier.
	ErrVersionNotFound = errors.New("version not found")

	// ErrStateConflict indicates the post's workflow state changed between read and write.
	ErrStateConflict = errors.New("workflow state changed concurrently")

	// ErrVersionConflict indicates another writer took the next version number first.
	ErrVersionConflict = errors.New("version number taken concurrently")

	// ErrInvalidPost indicates a post is missing required fields.
	ErrInvalidPost = errors.New("invalid post")
)

// PostError wraps post-related errors with additional context.
type PostError struct {
	Op      string // Operation being performed (e.g., "GetPost", "ApplyTransition")
	PostID  string // Post ID if applicable
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *PostError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for post %s: %s (%v)", e.Op, e.PostID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for post errors.
func (e *PostError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPostError creates a new post error with context.
func NewPostError(op, postID string, err error) *PostError {
	return &PostError{
		Op:     op,
		PostID: postID,
		Err:    err,
	}
}

// VersionError wraps version-related errors with additional context.
type VersionError struct {
	Op        string // Operation being performed
	PostID    string // Post ID if known
	VersionID string // Version ID if known
	Err       error  // Underlying error
}

func (e *VersionError) Error() string {
	if e.VersionID == "" {
		return fmt.Sprintf("%s operation failed for versions of post %s: %v", e.Op, e.PostID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for version %s: %v", e.Op, e.VersionID, e.Err)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

func (e *VersionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewVersionError creates a new version error with context.
func NewVersionError(op, postID, versionID string, err error) *VersionError {
	return &VersionError{
		Op:        op,
		PostID:    postID,
		VersionID: versionID,
		Err:       err,
	}
}

// IsPostNotFound checks if an error indicates a post was not found.
func IsPostNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

// IsVersionNotFound checks if an error indicates a version was not found.
func IsVersionNotFound(err error) bool {
	return errors.Is(err, ErrVersionNotFound)
}

// IsConflict checks if an error indicates a lost compare-and-swap race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStateConflict) || errors.Is(err, ErrVersionConflict)
}
