package model

import (
	"errors"
	"fmt"
)

// ValidationError reports an incomplete or invalid configuration or question.
// It blocks the action locally and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GenerationError wraps a failure of the quiz generation service.
type GenerationError struct {
	Err error
	// Retryable is false when repeating the same request cannot succeed,
	// e.g. the service returned a malformed quiz.
	Retryable bool
}

func (e *GenerationError) Error() string { return "generate quiz: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// SaveError wraps a failure to persist a quiz.
type SaveError struct {
	QuizID string
	Err    error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save quiz %s: %v", e.QuizID, e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// ExportError wraps a failure to render a quiz document.
type ExportError struct {
	Format ExportFormat
	Err    error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Format, e.Err) }
func (e *ExportError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetryable reports whether err is a generation failure worth retrying.
func IsRetryable(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && ge.Retryable
}
