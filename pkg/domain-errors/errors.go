// Package domainerrors defines coded errors shared between services and the
// HTTP transport. Services attach a Code describing the class of failure;
// the transport layer translates codes to HTTP statuses in one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest covers malformed input that never reached field
	// validation: non-array bulk bodies, bad attachments, unreadable JSON.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers field-level validation failures. Errors with
	// this code usually carry a field -> reasons mapping.
	CodeValidation Code = "validation"
	CodeNotFound   Code = "not_found"
	// CodeConflict covers uniqueness collisions on a write.
	CodeConflict Code = "conflict"
	CodeTimeout  Code = "timeout"
	// CodeUnavailable means a dependency is unconfigured or unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeUpstream means a dependency was reachable but the call failed.
	CodeUpstream Code = "upstream"
	CodeInternal Code = "internal"
)

// Error is a domain error with a classification code, an optional field
// error mapping, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Fields  map[string][]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithFields creates a validation-class error carrying a field -> reasons map.
func WithFields(code Code, message string, fields map[string][]string) *Error {
	return &Error{Code: code, Message: message, Fields: fields}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// FieldsOf extracts the field error mapping from err, if any.
func FieldsOf(err error) map[string][]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeConflict:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstream, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
