// Package errors provides custom error types for the runledger system.
// The types map onto the ingestion error taxonomy: skippable record errors,
// missing-source warnings, fatal configuration errors, and storage errors,
// enabling programmatic error checking at the pipeline boundary.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the runledger system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceMissing indicates that an expected input file or directory is absent
	ErrSourceMissing = errors.New("source missing")

	// ErrTokenRequired indicates that an auth token is required but not provided
	ErrTokenRequired = errors.New("auth token required")

	// ErrStorage indicates a storage-layer failure that aborts the invocation
	ErrStorage = errors.New("storage failure")

	// ErrReadOnly indicates an attempt to modify a read-only resource
	ErrReadOnly = errors.New("read only")
)

// ParseError represents a failure to parse a raw record or field.
// Parse errors are skippable: the offending record is dropped and
// ingestion of the source continues.
type ParseError struct {
	Format  string // "csv", "json", "date", etc.
	File    string
	Value   string // the offending raw value, for diagnostics
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s parse error for %q: %s", e.Format, e.Value, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewParseError creates a new ParseError
func NewParseError(format, value, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// SourceError represents a missing or unreadable input source.
// A missing source contributes zero records; ingestion of other
// sources continues.
type SourceError struct {
	Source  string // "strava", "garmin", "oura"
	Pattern string // the file pattern that failed to match
	Err     error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("source %s: no input matching %q", e.Source, e.Pattern)
	}
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceMissing
}

// NewSourceError creates a new SourceError
func NewSourceError(source, pattern string, err error) *SourceError {
	return &SourceError{Source: source, Pattern: pattern, Err: err}
}

// ConfigError represents a fatal configuration error. It is reported
// before any write is attempted and terminates the process.
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
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// StorageError represents a storage-layer failure (constraint violation
// outside the conflict policy, connection loss mid-batch). It propagates
// and aborts the invocation; there is no automatic retry.
type StorageError struct {
	Operation string // "upsert", "insert", "query", "migrate", "commit"
	Table     string
	Err       error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("storage error during %s of %s: %v", e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError creates a new StorageError
func NewStorageError(operation, table string, err error) *StorageError {
	return &StorageError{Operation: operation, Table: table, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "upload"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ExportError represents an error while sending data to an external
// destination (object storage, HTTP event endpoint).
type ExportError struct {
	Destination string // "s3", "hec", "file"
	Table       string
	StatusCode  int
	Err         error
}

// Error implements the error interface
func (e *ExportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("export to %s failed for %s (status %d): %v", e.Destination, e.Table, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("export to %s failed for %s: %v", e.Destination, e.Table, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError
func NewExportError(destination, table string, statusCode int, err error) *ExportError {
	return &ExportError{
		Destination: destination,
		Table:       table,
		StatusCode:  statusCode,
		Err:         err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSourceMissing checks if an error indicates a missing input source
func IsSourceMissing(err error) bool {
	return errors.Is(err, ErrSourceMissing)
}

// IsStorage checks if an error is a storage-layer failure
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsValidationError checks if an error is a validation/parse error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapStorage wraps an error as a StorageError
func WrapStorage(operation, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewStorageError(operation, table, err)
}

// WrapExport wraps an error as an ExportError
func WrapExport(destination, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewExportError(destination, table, 0, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, value string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, value, err.Error(), err)
}
