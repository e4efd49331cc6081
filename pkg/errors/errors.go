package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur during a collection run
type ErrorType string

const (
	ErrorTypeMissingInput   ErrorType = "missing_input"
	ErrorTypeResourceInit   ErrorType = "resource_init"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeTargetNotFound ErrorType = "target_not_found"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error is a run-level failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// MissingInput is returned when the caller supplied no target
func MissingInput(message string) *Error {
	return New(ErrorTypeMissingInput, message, nil)
}

// ResourceInit is returned when the browser runtime cannot be started
func ResourceInit(message string, err error) *Error {
	return New(ErrorTypeResourceInit, message, err)
}

// Authentication is returned when credentials were supplied but login could not be confirmed
func Authentication(message string, err error) *Error {
	return New(ErrorTypeAuthentication, message, err)
}

// TargetNotFound is returned when a required UI affordance never appeared
func TargetNotFound(message string) *Error {
	return New(ErrorTypeTargetNotFound, message, nil)
}

// Timeout is returned when a bounded wait elapsed without the expected condition
func Timeout(message string, err error) *Error {
	return New(ErrorTypeTimeout, message, err)
}

// Unknown wraps any other failure surfaced at the run boundary
func Unknown(message string, err error) *Error {
	return New(ErrorTypeUnknown, message, err)
}

// TypeOf returns the outermost typed classification of err
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type anywhere in its chain
func Is(err error, t ErrorType) bool {
	for err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			return t == ErrorTypeTimeout && errors.Is(err, context.DeadlineExceeded)
		}
		if typed.Type == t {
			return true
		}
		err = typed.Err
	}
	return false
}

// IsAuthentication checks for an authentication failure
func IsAuthentication(err error) bool { return Is(err, ErrorTypeAuthentication) }

// IsTimeout checks for a bounded wait that elapsed
func IsTimeout(err error) bool { return Is(err, ErrorTypeTimeout) }

// IsTargetNotFound checks for a missing UI affordance
func IsTargetNotFound(err error) bool { return Is(err, ErrorTypeTargetNotFound) }

// HTTPStatus maps an error type to the status code the HTTP surface answers with
func HTTPStatus(t ErrorType) int {
	switch t {
	case ErrorTypeMissingInput:
		return http.StatusBadRequest
	case ErrorTypeAuthentication, ErrorTypeTargetNotFound:
		return http.StatusBadGateway
	case ErrorTypeResourceInit:
		return http.StatusServiceUnavailable
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
