package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures observed while talking to remote APIs.
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeTransport  ErrorType = "transport"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeJobFailed  ErrorType = "job_failed"
	ErrorTypeJobTimeout ErrorType = "job_timeout"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents an API error with type information.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error.
func New(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// Pipeline preconditions. These abort a whole run; everything else is
// recovered locally and converted to skip/continue semantics.
var (
	// ErrNoContent means the seed yielded zero raw items.
	ErrNoContent = errors.New("no content discovered for seed")
	// ErrNoUsers means bundling produced an empty author mapping.
	ErrNoUsers = errors.New("no users found after bundling")
)

// IsRetryable checks if an error type should be retried.
// 401/403 gates on anonymous endpoints are sporadic, so the auth type is
// retried at the transport layer and surfaced only on exhaustion.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeTransport, ErrorTypeAuth:
		return true
	case ErrorTypeParsing, ErrorTypeNotFound, ErrorTypeJobFailed, ErrorTypeJobTimeout:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403: // Sporadic anonymous-access gating
		return true
	case 404:
		return false
	default:
		return statusCode >= 500
	}
}

// FromStatusCode maps an HTTP status code to a typed error.
func FromStatusCode(statusCode int, message string) *Error {
	var t ErrorType
	switch {
	case statusCode == 429:
		t = ErrorTypeRateLimit
	case statusCode == 401 || statusCode == 403:
		t = ErrorTypeAuth
	case statusCode == 404:
		t = ErrorTypeNotFound
	case statusCode >= 500:
		t = ErrorTypeTransport
	default:
		t = ErrorTypeUnknown
	}
	return &Error{Type: t, Message: message, Code: statusCode}
}
