package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrInvalidParent indicates a folder parent that does not exist or
	// belongs to a different owner.
	ErrInvalidParent = errors.New("invalid parent folder")

	// ErrCycleDetected indicates a folder move that would make a folder
	// its own ancestor.
	ErrCycleDetected = errors.New("folder move would create a cycle")

	// ErrNotEmpty indicates a non-cascading delete of a folder that still
	// has children or documents.
	ErrNotEmpty = errors.New("folder is not empty")

	// ErrSelfShare indicates an attempt to share a document with its owner.
	ErrSelfShare = errors.New("cannot share a document with its owner")

	// ErrVersionConflict indicates a lost race on version creation; the
	// caller should re-read the latest version and resubmit.
	ErrVersionConflict = errors.New("version number conflict")

	// ErrTransient indicates a storage or network failure that is safe to
	// retry. This layer never retries internally.
	ErrTransient = errors.New("transient storage error")
)

// ConflictError represents a resource conflict with details about the
// existing resource (duplicate sibling name, duplicate tag name).
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, folder, tag, share)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// TransientError wraps a storage/network failure so callers can decide on
// a retry policy. The underlying cause stays reachable via Unwrap.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Cause.Error()
}

func (e *TransientError) StatusCode() int { return http.StatusServiceUnavailable }

func (e *TransientError) Unwrap() error { return e.Cause }

// Is allows errors.Is() to match against ErrTransient
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}
