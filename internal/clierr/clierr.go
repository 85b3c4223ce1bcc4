// Package clierr defines the coded errors the focus CLI exits with.
package clierr

import (
	"errors"
	"fmt"

	"focusService/internal/clock"
	"focusService/internal/store"
)

// Error codes, stable across releases.
const (
	InvalidTransition = "INVALID_TRANSITION"
	InvalidSettings   = "INVALID_SETTINGS"
	TaskNotFound      = "TASK_NOT_FOUND"
	InvalidInput      = "INVALID_INPUT"
	InternalError     = "INTERNAL_ERROR"
)

// Error is a CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2
	}
	return 1
}

// From classifies err. Errors that are already coded pass through.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}

	code := InternalError
	switch {
	case errors.Is(err, clock.ErrInvalidTransition):
		code = InvalidTransition
	case errors.Is(err, clock.ErrInvalidSettings):
		code = InvalidSettings
	case errors.Is(err, store.ErrTaskNotFound):
		code = TaskNotFound
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}
