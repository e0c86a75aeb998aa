package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when an operation needs an identified actor
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPermissionDenied is returned when the actor lacks ownership or the admin role
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is missing or tombstoned
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a unique resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when the request conflicts with the current state
	ErrConflict = errors.New("conflict occurred")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)

// Stable machine-readable error codes exposed to API clients.
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeNotFound         = "NOT_FOUND"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL"
)

// Invalid wraps ErrInvalidInput with a human readable detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a human readable detail.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Denied wraps ErrPermissionDenied with a human readable detail.
func Denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// ErrorCode maps an error onto its stable code. Unknown errors are internal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeValidationFailed
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return CodeConflict
	default:
		return CodeInternal
	}
}
