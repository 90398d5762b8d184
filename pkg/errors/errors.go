// Package errors provides structured error types for meshtower.
//
// Errors carry a machine-readable [Code] so the CLI and the HTTP view can map
// failures to exit messages and status codes without string matching.
//
// # Error Codes
//
// Codes are grouped by prefix:
//   - INVALID_*: input, address, format or config validation failures
//   - FETCH_FAILED, NETWORK_ERROR, TIMEOUT, RPC_ERROR: topology retrieval
//   - UNAUTHORIZED: the ubus session was rejected
//   - RENDER_FAILED, INTERNAL_ERROR: output stage failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "calling %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidAddress Code = "INVALID_ADDRESS"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Retrieval errors
	ErrCodeFetchFailed Code = "FETCH_FAILED"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRPC         Code = "RPC_ERROR"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Output and internal errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// The outermost coded error in the chain decides; see [GetCode].
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available. The first
// *Error in the chain wins, then the first *RPCError. Returns empty string
// if neither is present.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var rpc *RPCError
	if errors.As(err, &rpc) {
		return rpc.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RPCError is a non-zero ubus status returned for a call.
type RPCError struct {
	Object string
	Method string
	Status int
}

// ubus status codes, from libubus.
const (
	UbusStatusNotFound         = 4
	UbusStatusPermissionDenied = 6
	UbusStatusTimeout          = 7
)

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("ubus %s.%s: status %d (%s)", e.Object, e.Method, e.Status, ubusStatusText(e.Status))
}

// Code returns the error code for this error type.
func (e *RPCError) Code() Code {
	switch e.Status {
	case UbusStatusPermissionDenied:
		return ErrCodeUnauthorized
	case UbusStatusNotFound:
		return ErrCodeNotFound
	case UbusStatusTimeout:
		return ErrCodeTimeout
	}
	return ErrCodeRPC
}

func ubusStatusText(status int) string {
	switch status {
	case 0:
		return "ok"
	case 1:
		return "invalid command"
	case 2:
		return "invalid argument"
	case 3:
		return "method not found"
	case UbusStatusNotFound:
		return "not found"
	case 5:
		return "no data"
	case UbusStatusPermissionDenied:
		return "permission denied"
	case UbusStatusTimeout:
		return "timeout"
	case 8:
		return "not supported"
	case 9:
		return "unknown error"
	case 10:
		return "connection failed"
	}
	return "unknown status"
}
