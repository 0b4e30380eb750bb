package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent retrieval engine failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates invalid chunking or search parameters.
	// It is fatal to the call and never silently corrected.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown embedding provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyQuery indicates blank or whitespace-only query text.
	ErrEmptyQuery = errors.New("empty query")

	// ErrEmbeddingFailed indicates the embedding provider failed for a chunk or query.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimensionality already established by the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrSuperseded indicates an ingestion was overtaken by a newer ingestion,
	// removal or clear of the same document before it finished.
	ErrSuperseded = errors.New("superseded")

	// Cancellation Errors.

	// ErrTimeout indicates the caller's deadline expired before the call completed.
	ErrTimeout = errors.New("timed out")

	// ErrCancelled indicates the caller cancelled the call.
	ErrCancelled = errors.New("cancelled")
)

// ConfigurationError describes which setting was rejected.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfig).
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// ContextError maps a context error onto ErrTimeout or ErrCancelled so callers
// can tell a retryable deadline from a deliberate abort.
// Errors unrelated to the context are returned unchanged.
func ContextError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	default:
		return err
	}
}

// IsContextError reports whether err stems from a cancelled or expired context.
func IsContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCancelled)
}
