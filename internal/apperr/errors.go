package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports bad caller input. No provider calls are made once it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Validation returns a ValidationError for field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GenerationError wraps a failed text or image provider call.
type GenerationError struct {
	Agent    string // e.g. "text-1-cerebras", "image-dalle"
	Provider string // e.g. "openai", "dalle"
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (agent=%s provider=%s): %v", e.Agent, e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when a client exceeds its request allowance.
type RateLimitError struct {
	Key   string
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests allowed per window", e.Limit)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var g *GenerationError
	return errors.As(err, &g)
}

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var r *RateLimitError
	return errors.As(err, &r)
}

// ErrUnavailable marks an optional component (database, mailer, storage, ...) that is not configured.
var ErrUnavailable = errors.New("component not configured")

// Unavailable wraps ErrUnavailable with the component name.
func Unavailable(component string) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, component)
}
