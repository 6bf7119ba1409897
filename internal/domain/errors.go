// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthenticated is returned when a request carries no usable
	// identity: missing, malformed, or expired token, or a token whose
	// user no longer exists.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotOwner is returned when an authenticated user operates on a
	// task owned by somebody else.
	ErrNotOwner = errors.New("you are not authorised")

	// ErrTaskCompleted is returned when a mutation is rejected because the
	// task has already been marked done.
	ErrTaskCompleted = errors.New("task is already completed")

	// ErrUpstream is returned when an external collaborator (the user
	// service) fails or times out. The transport-level cause stays internal.
	ErrUpstream = errors.New("we could not complete this request, please try again")
)

// ValidationError carries the field that failed validation alongside the
// underlying domain error, so the API layer can build a field-error map.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
