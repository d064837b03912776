package core

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorInvalidID    ErrorCode = "INVALID_ID"
	ErrorForbidden    ErrorCode = "FORBIDDEN"
	ErrorNotFound     ErrorCode = "NOT_FOUND"
	ErrorAIService    ErrorCode = "AI_SERVICE_ERROR"
	ErrorStorage      ErrorCode = "STORAGE_ERROR"
)

// Error is the typed failure returned by the services in this package.
// Code drives the HTTP status mapping, Reason is a stable machine-readable
// cause, Err is the underlying error if any.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("core: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("core: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
