// Package errors provides custom error types for the jsonmend system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the reconciliation pipeline.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the jsonmend system
var (
	// ErrSchemaNotSubmitted indicates reconciliation was attempted before a schema was submitted
	ErrSchemaNotSubmitted = errors.New("schema not submitted")

	// ErrInvalidSchema indicates a schema failed structural validation
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrResponderUnavailable indicates the generative backend is temporarily unavailable
	ErrResponderUnavailable = errors.New("responder unavailable")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidJSON indicates the responder returned text that is not valid JSON
	ErrInvalidJSON = errors.New("invalid JSON response")

	// ErrInferenceFailed indicates the embedding backend failed for an input
	ErrInferenceFailed = errors.New("inference failed")
)

// SchemaError represents a schema that failed structural validation
// or was not in a recognized shape. It is raised synchronously at
// submission time and never silently ignored.
type SchemaError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid schema at field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid schema: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(field, message string, err error) *SchemaError {
	return &SchemaError{Field: field, Message: message, Err: err}
}

// CoercionError represents a value that could not be brought to its
// schema-expected type. It is recorded into a partition's errors map,
// never raised, so sibling keys keep processing.
type CoercionError struct {
	Path   string
	Value  any
	Target string
	Err    error
}

// Error implements the error interface
func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce value at %s to %s: %v", e.Path, e.Target, e.Value)
}

// Unwrap implements errors.Unwrap
func (e *CoercionError) Unwrap() error {
	return e.Err
}

// NewCoercionError creates a new CoercionError
func NewCoercionError(path string, value any, target string, err error) *CoercionError {
	return &CoercionError{Path: path, Value: value, Target: target, Err: err}
}

// TransportError represents a failure from the generative text backend
type TransportError struct {
	Backend    string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error from %s (status %d): %s", e.Backend, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error from %s: %s", e.Backend, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrResponderUnavailable
	}
	return false
}

// NewTransportError creates a new TransportError
func NewTransportError(backend string, statusCode int, message string, err error) *TransportError {
	return &TransportError{
		Backend:    backend,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// InferenceError represents a failure of the embedding backend on a
// single input. It is caught per key and downgrades that key to
// unmatched rather than failing the whole request.
type InferenceError struct {
	Key string
	Err error
}

// Error implements the error interface
func (e *InferenceError) Error() string {
	return fmt.Sprintf("embedding inference failed for key %q: %v", e.Key, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *InferenceError) Is(target error) bool {
	return target == ErrInferenceFailed
}

// NewInferenceError creates a new InferenceError
func NewInferenceError(key string, err error) *InferenceError {
	return &InferenceError{Key: key, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, message string, err error) *ParseError {
	return &ParseError{Format: format, Message: message, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// Helper functions for error checking

// IsSchemaError checks if an error indicates an invalid schema
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsSchemaNotSubmitted checks if an error is the missing-schema precondition failure
func IsSchemaNotSubmitted(err error) bool {
	return errors.Is(err, ErrSchemaNotSubmitted)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsInvalidJSON checks if an error indicates a non-JSON responder reply
func IsInvalidJSON(err error) bool {
	return errors.Is(err, ErrInvalidJSON)
}

// IsInferenceFailure checks if an error came from the embedding backend
func IsInferenceFailure(err error) bool {
	return errors.Is(err, ErrInferenceFailed)
}

// IsRetryable reports whether a responder call that produced err may be
// safely retried. Rate limits, backend unavailability, timeouts, and
// invalid JSON replies are transient from the caller's point of view.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrResponderUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrInvalidJSON)
}

// Helper wrapping functions for common patterns

// WrapParse wraps an error as a ParseError
func WrapParse(format string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, err.Error(), err)
}

// WrapTransport wraps an error as a TransportError
func WrapTransport(backend string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{
		Backend:    backend,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
