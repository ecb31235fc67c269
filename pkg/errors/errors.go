package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeNetwork covers connection failures, DNS failures and timeouts
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeBadRequest is an HTTP 400, the REST API's way of rejecting a page or page size
	ErrorTypeBadRequest ErrorType = "bad_request"
	// ErrorTypeProtocol is any other unexpected HTTP status
	ErrorTypeProtocol ErrorType = "protocol"
	ErrorTypeParsing  ErrorType = "parsing"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without an underlying cause
func New(errorType ErrorType, code int, message string) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// Wrap creates a typed error around cause
func Wrap(errorType ErrorType, code int, message string, cause error) *Error {
	return &Error{Type: errorType, Message: message, Code: code, Err: cause}
}

// TypeOf returns the type of the first *Error in err's chain, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given error type
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// TypeForStatus maps a non-200 HTTP status code to an error type
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 400:
		return ErrorTypeBadRequest
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 0:
		return ErrorTypeNetwork
	default:
		return ErrorTypeProtocol
	}
}
