// Package apperror defines the application's error taxonomy.
//
// Every error that crosses a layer boundary is either an *AppError wrapping one
// of the sentinels below, or an unexpected failure. The HTTP layer maps the
// sentinels to status codes; anything else becomes a 500 with a generic message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error

	// Hint is optional recovery data for the caller. A score conflict carries
	// the score already on record so the client can offer an update.
	Hint any
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

// ConflictWithHint returns a conflict whose Hint tells the caller how to
// recover (for example, the existing record it collided with).
func ConflictWithHint(message string, hint any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Hint:    hint,
	}
}

// Unauthorized returns an AppError for a missing or invalid credential.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
