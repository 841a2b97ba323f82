package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatExecution  ErrorCategory = "execution"  // Runtime failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatState      ErrorCategory = "state"      // State corruption
	ErrCatConflict   ErrorCategory = "conflict"   // Another run holds the lock
	ErrCatNetwork    ErrorCategory = "network"    // Network connectivity
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Predefined error codes
const (
	CodeLockUnavailable  = "LOCK_UNAVAILABLE"
	CodeStateCorrupted   = "STATE_CORRUPTED"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeDispatchFailed   = "DISPATCH_FAILED"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeUnknownMessenger = "UNKNOWN_MESSENGER"
	CodeUnknownExtractor = "UNKNOWN_EXTRACTOR"
	CodeSinkUnreachable  = "SINK_UNREACHABLE"
	CodePushRejected     = "PUSH_REJECTED"
	CodePushFailed       = "PUSH_FAILED"
)

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExecution creates an execution error.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNetwork creates a network error. Sinks that cannot be reached are
// worth retrying.
func ErrNetwork(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatNetwork,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrLockUnavailable reports that another run holds the named lock.
// It is an expected outcome for overlapping scheduled invocations.
func ErrLockUnavailable(name string) *DomainError {
	return &DomainError{
		Category:  ErrCatConflict,
		Code:      CodeLockUnavailable,
		Message:   fmt.Sprintf("lock %q is held by another run", name),
		Retryable: true,
		Details:   map[string]interface{}{"lock": name},
	}
}

// ErrCorruptState reports a last-run marker that exists but cannot be parsed.
// Never recover from it by defaulting: that would re-extract every record.
func ErrCorruptState(path, raw string, cause error) *DomainError {
	return ErrState(CodeStateCorrupted,
		fmt.Sprintf("last run marker %s is not a valid timestamp: %q", path, raw)).
		WithCause(cause).
		WithDetail("path", path)
}

// ErrExtraction wraps a failure of the extraction gateway.
func ErrExtraction(cause error) *DomainError {
	return ErrExecution(CodeExtractionFailed, "extracting records").WithCause(cause)
}

// ErrDispatch wraps a failure of one or more messengers.
func ErrDispatch(cause error, failed []string) *DomainError {
	return ErrExecution(CodeDispatchFailed, fmt.Sprintf("pushing records to %s", strings.Join(failed, ", "))).
		WithCause(cause).
		WithDetail("messengers", failed)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// HasCode checks if any DomainError in the chain carries code.
func HasCode(err error, code string) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Code == code
	}
	return false
}

// IsLockUnavailable reports whether err means another run is in progress.
func IsLockUnavailable(err error) bool {
	return HasCode(err, CodeLockUnavailable)
}

// IsCorruptState reports whether err is a corrupt last-run marker.
func IsCorruptState(err error) bool {
	return HasCode(err, CodeStateCorrupted)
}
