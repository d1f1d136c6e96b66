package errmap

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/the-dev-tools/kanban/pkg/ordering"
)

// Code classifies high-level error categories for user-facing messages.
type Code string

const (
	CodeInvalidIdentifier Code = "invalid_identifier"
	CodeInvalidRequest    Code = "invalid_request"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeInternal          Code = "internal"
)

// Error is a small wrapper that carries a code and an HTTP status while
// preserving the original cause via Unwrap.
type Error struct {
	Code    Code
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with an explicit code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Status: statusFor(code)}
}

// Map classifies err into a coded error. Engine sentinels and missing-row
// errors keep their meaning; anything else is internal.
func Map(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}

	code := CodeInternal
	switch {
	case errors.Is(err, ordering.ErrInvalidIdentifier):
		code = CodeInvalidIdentifier
	case errors.Is(err, ordering.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		code = CodeNotFound
	case errors.Is(err, ordering.ErrConflict):
		code = CodeConflict
	}

	msg := err.Error()
	if code == CodeInternal {
		// internal detail stays in the logs, not in the response
		msg = "internal error"
	}
	return &Error{Code: code, Message: msg, Status: statusFor(code), cause: err}
}

func statusFor(code Code) int {
	switch code {
	case CodeInvalidIdentifier, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
