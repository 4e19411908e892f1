// Package apperror defines the error kinds shared by every layer.
//
// Callers never compare error strings. They ask errors.Is(err, apperror.ErrX),
// which walks the wrap chain down to one of the sentinels below. Storage
// backends translate driver errors into these kinds at the boundary, so the
// service layer behaves identically on SQLite and Postgres.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// ErrForeignKey means a write referenced a row that does not exist.
	ErrForeignKey = errors.New("foreign key violation")

	// ErrTransient marks failures that may succeed when retried
	// (busy database, lock timeout, serialization failure, deadlock).
	ErrTransient = errors.New("transient failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// AlreadyExists reports a uniqueness violation on one of the resource's fields.
func AlreadyExists(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// StillReferenced is returned when a delete is blocked by rows that point at
// the target (RESTRICT foreign keys).
func StillReferenced(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %s is still referenced by other records", resource, id),
	}
}

// ForeignKeyViolation reports a write whose reference points nowhere.
func ForeignKeyViolation(resource, field string) *AppError {
	return &AppError{
		Err:     ErrForeignKey,
		Message: fmt.Sprintf("%s references a %s that does not exist", resource, field),
		Field:   field,
	}
}

// Transient wraps cause so that both errors.Is(err, ErrTransient) and
// errors.Is(err, cause) hold.
func Transient(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTransient, cause),
		Message: fmt.Sprintf("%s: temporarily unavailable: %v", op, cause),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission,
// e.g. editing content someone else authored.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
