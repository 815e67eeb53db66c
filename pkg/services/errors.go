// Package services implements the editorial workflow engine, the version store
// and the history and statistics readers on top of the persistence collaborators.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/editorial/pkg/persistence"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("concurrent modification")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidRequest    = errors.New("invalid request")

	// ErrAuditWriteFailed is only ever logged and reported on the effects channel.
	ErrAuditWriteFailed = errors.New("audit write failed")
)

// Error codes for API responses.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeAuditWriteFailed  = "AUDIT_WRITE_FAILED"
)

var kindCodes = []struct {
	kind error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrIllegalTransition, CodeIllegalTransition},
	{ErrForbidden, CodeForbidden},
	{ErrConflict, CodeConflict},
	{ErrStoreUnavailable, CodeStoreUnavailable},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrAuditWriteFailed, CodeAuditWriteFailed},
}

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// newError builds a ServiceError of the given kind. cause, when set, is kept
// in the chain next to the kind.
func newError(op string, kind error, message string, cause error) *ServiceError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}

	return &ServiceError{
		Op:      op,
		Code:    codeOf(kind),
		Message: message,
		Err:     err,
	}
}

// fromPersistence maps a persistence failure to a service kind. Anything not
// recognised is a store failure.
func fromPersistence(op string, err error) *ServiceError {
	switch {
	case persistence.IsPostNotFound(err):
		return newError(op, ErrNotFound, "post not found", err)
	case persistence.IsVersionNotFound(err):
		return newError(op, ErrNotFound, "version not found", err)
	case persistence.IsConflict(err):
		return newError(op, ErrConflict, "the post was modified concurrently, refresh and retry", err)
	default:
		return newError(op, ErrStoreUnavailable, "", err)
	}
}

func codeOf(kind error) string {
	for _, kc := range kindCodes {
		if errors.Is(kind, kc.kind) {
			return kc.code
		}
	}

	return CodeStoreUnavailable
}

// KindOf returns the error code of err, or "" when err is nil. Errors that
// carry no kind are reported as store failures.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Code != "" {
		return serviceErr.Code
	}

	return codeOf(err)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsIllegalTransition(err error) bool { return errors.Is(err, ErrIllegalTransition) }

func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidRequest) }
