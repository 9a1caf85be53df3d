// Package apperr defines the error kinds the ledger core reports to its callers.
//
// Core routines return *Error values whose message is safe to show to API clients.
// Transports classify them with errors.Is against the kind sentinels.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input or a violated business rule.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced group, user or balance that does not exist.
	ErrNotFound = errors.New("not found")
)

// Error is a classified error carrying a client-facing message.
type Error struct {
	kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind so errors.Is(err, ErrValidation) works.
func (e *Error) Unwrap() error { return e.kind }

// Validation returns a validation error with the given message.
func Validation(msg string) error {
	return &Error{kind: ErrValidation, Message: msg}
}

// Validationf formats a validation error message.
func Validationf(format string, args ...any) error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error with the given message.
func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, Message: msg}
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Message returns the client-facing message of a classified error, or the
// plain error text otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
