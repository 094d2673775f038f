package types

import "fmt"

// ErrorCode represents a unified error code across the framework.
type ErrorCode string

// Routing error codes
const (
	// ErrInvalidRoute marks a registry or decision-provider contract
	// violation: the proposed candidate is not a child of the viewer.
	// Fatal for the request, never counted against breaker budgets.
	ErrInvalidRoute ErrorCode = "INVALID_ROUTE"

	ErrWorkerNotFound    ErrorCode = "WORKER_NOT_FOUND"
	ErrNoRoot            ErrorCode = "NO_ROOT_SUPERVISOR"
	ErrInvalidTree       ErrorCode = "INVALID_TREE"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// Breaker control-flow codes. These are signals, not system failures:
// they always lead to a backtrack or a graceful terminal state.
const (
	ErrDepthExceeded       ErrorCode = "DEPTH_EXCEEDED"
	ErrLocalBreakerTripped ErrorCode = "LOCAL_BREAKER_TRIPPED"
	ErrGlobalBreakerTrip   ErrorCode = "GLOBAL_BREAKER_TRIPPED"
	ErrPathAttempted       ErrorCode = "PATH_ALREADY_ATTEMPTED"
)

// Request lifecycle codes
const (
	ErrRequestCancelled ErrorCode = "REQUEST_CANCELLED"
	ErrCallTimeout      ErrorCode = "CALL_TIMEOUT"
	ErrRequestExhausted ErrorCode = "REQUEST_EXHAUSTED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Worker    string    `json:"worker,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithWorker attaches the worker name the error refers to.
func (e *Error) WithWorker(worker string) *Error {
	e.Worker = worker
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
