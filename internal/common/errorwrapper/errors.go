package errorwrapper

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the dispatch pipeline. Callers classify failures with errors.Is.
var (
	// ErrInvalidArgument indicates a nil or missing required argument on a mutation call
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates an operation that cannot proceed in the current state
	ErrInvalidState = errors.New("invalid state")
	// ErrInvariantViolation indicates a broken internal assumption, not a user error
	ErrInvariantViolation = errors.New("internal invariant violated")
	// ErrNetworkFailure indicates network connectivity issues
	ErrNetworkFailure = errors.New("network failure")
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information.
// It matches ErrInvalidArgument.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NilArgument reports a required argument that was nil or empty.
func NilArgument(field string) *ValidationError {
	return NewValidationError(field, nil, field+" cannot be nil")
}

// StateError reports an operation attempted in a state that cannot serve it.
type StateError struct {
	Operation string
	Reason    string
}

func (e *StateError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("invalid state for %s: %s", e.Operation, e.Reason)
	}
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// NewStateError creates a new state error
func NewStateError(operation, reason string) *StateError {
	return &StateError{Operation: operation, Reason: reason}
}

// InvariantError reports a collaborator or protocol assumption that did not hold.
// It is kept apart from user-facing kinds so operators can alert on it.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// NewInvariantError creates a new invariant error
func NewInvariantError(detail string) *InvariantError {
	return &InvariantError{Detail: detail}
}

// NetworkError represents network-related errors
type NetworkError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *NetworkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("network error for URL '%s': %s: %v", e.URL, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("network error for URL '%s': %s", e.URL, e.Reason)
}

func (e *NetworkError) Unwrap() error {
	return e.Wrapped
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkFailure
}

// NewNetworkError creates a new network error
func NewNetworkError(url, reason string, wrapped error) *NetworkError {
	return &NetworkError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// HTTPError represents a non-2xx response from the API
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d error for URL '%s': %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d error: %s", e.StatusCode, e.Message)
}

// NewHTTPErrorWithURL creates a new HTTP error with URL context
func NewHTTPErrorWithURL(statusCode int, message, url string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		URL:        url,
	}
}

// IsInvariantViolation reports whether err signals an internal defect.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
