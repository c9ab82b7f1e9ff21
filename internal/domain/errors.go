package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("could not validate credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrInactiveUser = errors.New("inactive user")

	// ErrMissingInstructions is returned when a chat's project has no base
	// instructions. It is a validation failure and is never retried.
	ErrMissingInstructions = fmt.Errorf("%w: chat project is missing base instructions", ErrValidation)

	// ErrProviderFailure wraps the last error after the LLM retry budget is spent.
	ErrProviderFailure = errors.New("llm provider failure")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (user, project, chat)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
