// Package errors provides structured error types for chartpad.
//
// Errors carry a machine-readable [Code] so the CLI and the HTTP API can
// react to a failure class without string matching:
//   - INVALID_*: input validation failures (datasets, ops, config)
//   - *_NOT_FOUND: missing files, sessions or columns
//   - STORE_* / CACHE_*: backend failures
//   - INTERNAL_ERROR: everything unexpected
//
// The editing core never returns these; it rejects invalid gestures
// silently. They are used by loaders, stores, config and transports.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDataset, "row %d has no key", i)
//	if errors.Is(err, errors.ErrCodeInvalidDataset) {
//	    // reject the upload
//	}
//
//	return errors.Wrap(errors.ErrCodeStore, err, "save session %s", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidDataset   Code = "INVALID_DATASET"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidOp        Code = "INVALID_OP"
	ErrCodeInvalidChartType Code = "INVALID_CHART_TYPE"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  Code = "SESSION_EXPIRED"

	// Backend errors
	ErrCodeStore   Code = "STORE_ERROR"
	ErrCodeCache   Code = "CACHE_ERROR"
	ErrCodeSource  Code = "SOURCE_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

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
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping cause. A nil cause yields nil so
// callers can wrap unconditionally.
func Wrap(code Code, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix for *Error
// values and the plain error string otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidDataset, ErrCodeInvalidFormat,
		ErrCodeInvalidOp, ErrCodeInvalidChartType, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeSessionExpired:
		return http.StatusGone
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
