package models

import (
	"strings"
)

// ValidationError represents rejected input.
// Problems holds every violation found in one pass so callers can report them together.
type ValidationError struct {
	Field    string
	Value    string
	Message  string
	Problems []string

	cause error
}

// NewValidationError wraps a batch of violation messages
func NewValidationError(problems []string) *ValidationError {
	return &ValidationError{
		Message:  strings.Join(problems, "; "),
		Problems: problems,
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
