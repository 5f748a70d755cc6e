package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes surfaced by a benchmark run. Every error returned by the
// dispatcher, aggregator and ranking engine matches exactly one of these
// through errors.Is, and all of them are terminal for the run.
var (
	// ErrInvalidInput indicates that the caller supplied inputs that are
	// inconsistent with each other, such as auxiliary sequences whose length
	// does not match the number of prompts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackend indicates that a backend invocation failed.
	ErrBackend = errors.New("backend failure")

	// ErrConfiguration indicates that the run configuration is incomplete or
	// inconsistent, for example a metric without a weight.
	ErrConfiguration = errors.New("invalid configuration")
)

// InvalidInputError describes a rejected input. It is returned before any
// backend work starts.
type InvalidInputError struct {
	// Field names the offending input.
	Field string

	// Reason explains what was wrong with it.
	Reason string
}

// Error implements the error interface for InvalidInputError.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: field=%s, reason=%s", e.Field, e.Reason)
}

// Unwrap exposes ErrInvalidInput so callers can use errors.Is.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// NewInvalidInputError creates an InvalidInputError with a formatted reason.
func NewInvalidInputError(field, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// BackendError records which task failed when a backend invocation returns
// an error. The original cause is preserved and reachable through errors.As.
type BackendError struct {
	// PromptIndex is the position of the prompt in the run's prompt sequence.
	PromptIndex int

	// BackendIndex is the position of the backend in the run's backend
	// sequence.
	BackendIndex int

	// Backend is the backend's display name.
	Backend string

	// Kind is the task that was being executed.
	Kind TaskKind

	// Err is the error returned by the backend.
	Err error
}

// Error implements the error interface for BackendError.
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error: backend=%s (%d), prompt=%d, task=%s, err=%v",
		e.Backend, e.BackendIndex, e.PromptIndex, e.Kind, e.Err)
}

// Unwrap returns both the class sentinel and the underlying cause.
func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// NewBackendError creates a BackendError for the given task coordinates.
func NewBackendError(promptIdx, backendIdx int, backend string, kind TaskKind, err error) *BackendError {
	return &BackendError{
		PromptIndex:  promptIdx,
		BackendIndex: backendIdx,
		Backend:      backend,
		Kind:         kind,
		Err:          err,
	}
}

// ConfigurationError reports a problem with metrics, weights or other run
// settings.
type ConfigurationError struct {
	// Key is the configuration entry at fault, e.g. a metric name.
	Key string

	// Reason explains the problem.
	Reason string
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: key=%s, reason=%s", e.Key, e.Reason)
}

// Unwrap exposes ErrConfiguration so callers can use errors.Is.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a ConfigurationError with a formatted reason.
func NewConfigurationError(key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError collects multiple validation failures for one entity,
// such as a benchmark suite file.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %s", e.Entity, strings.Join(e.Errors, "; "))
}

// Unwrap classifies validation failures as invalid input.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// AddError appends a formatted validation message.
func (e *ValidationError) AddError(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: make([]string, 0)}
}
