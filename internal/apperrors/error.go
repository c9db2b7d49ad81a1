// Package apperrors carries coded application errors through the contact
// pipeline so handlers can map failures to HTTP responses without parsing
// error strings.
package apperrors

import (
	"errors"
	"fmt"
)

// Re-exported standard library helpers.
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// AppError pairs a machine-readable code with a client-safe message. The
// wrapped error holds internal detail that is logged but never echoed to
// the caller.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

// Code returns the error code.
func (e *AppError) Code() string {
	return e.code
}

// Message returns the client-safe message without internal detail.
func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewAppError creates a coded application error.
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Wrap wraps an error with a new message, preserving an existing code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return NewAppError(appErr.Code(), message, err)
	}

	return NewAppError(ErrInternal, message, err)
}
