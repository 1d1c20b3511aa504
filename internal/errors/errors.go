// Package apperrors defines the structured error types of fibeval. Each type
// names a class of failure (configuration, validation, calculation, resource
// exhaustion) and maps to a process exit code.
//
// All wrapping types implement Unwrap so that errors.Is and errors.As see
// through them.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0   // Successful run.
	ExitErrorGeneric  = 1   // Unclassified failure.
	ExitErrorTimeout  = 2   // The -timeout deadline expired.
	ExitErrorMismatch = 3   // Two backends disagreed on F(n).
	ExitErrorConfig   = 4   // Invalid flags, environment or input values.
	ExitErrorResource = 5   // A memory, index or precision ceiling was hit.
	ExitErrorCanceled = 130 // Interrupted by SIGINT/SIGTERM.
)

// ErrMismatch reports that two backends returned different values for the
// same index.
var ErrMismatch = errors.New("inconsistent results between algorithms")

// ConfigError reports an invalid configuration. The application cannot
// proceed until the user fixes the input.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError wraps the failure of an evaluator while keeping the cause
// reachable through errors.Is / errors.As.
type CalculationError struct {
	// Algorithm is the registry name of the evaluator that failed, if known.
	Algorithm string
	Cause     error
}

func (e CalculationError) Error() string {
	if e.Algorithm != "" {
		return fmt.Sprintf("%s: %v", e.Algorithm, e.Cause)
	}
	return e.Cause.Error()
}

func (e CalculationError) Unwrap() error { return e.Cause }

// NewCalculationError wraps cause for the named evaluator. A nil cause
// yields nil.
func NewCalculationError(algorithm string, cause error) error {
	if cause == nil {
		return nil
	}
	return CalculationError{Algorithm: algorithm, Cause: cause}
}

// ResourceError reports that a request would exceed a hard ceiling: the
// memo table capacity, the maximum accepted index, or the largest mantissa
// math/big can represent. Requests are rejected rather than truncated.
type ResourceError struct {
	// Resource names the exhausted resource (e.g. "memo table").
	Resource string
	// Limit is the configured ceiling.
	Limit uint64
	// Requested is the value that would have crossed it.
	Requested uint64
}

func (e ResourceError) Error() string {
	return fmt.Sprintf("resource exhausted: %s limit is %d, requested %d", e.Resource, e.Limit, e.Requested)
}

// NewResourceError creates a ResourceError.
//
// Parameters:
//   - resource: A short name for the exhausted resource.
//   - limit: The ceiling that applies.
//   - requested: The value that was asked for.
//
// Returns:
//   - error: A new ResourceError.
func NewResourceError(resource string, limit, requested uint64) error {
	return ResourceError{Resource: resource, Limit: limit, Requested: requested}
}

// WrapError wraps err with a formatted context message using %w. It returns
// nil when err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError reports whether err is a cancellation or deadline error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsResourceError reports whether a ResourceError is anywhere in err's chain.
func IsResourceError(err error) bool {
	var re ResourceError
	return errors.As(err, &re)
}

// ValidationError reports a rejected input value: a non-positive precision,
// a malformed candidate, an out-of-range index.
type ValidationError struct {
	// Field is the name of the offending input.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the rejected value (optional).
	Value any
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}
