package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so ErrAlreadyExists.WithMessage(...)
// still satisfies errors.Is(err, ErrAlreadyExists).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}
)

// ReferenceError reports a recipe link whose tag or ingredient row no longer
// exists. It matches ErrInvalidInput.
type ReferenceError struct {
	Field string // "tags" or "ingredients"
	ID    string
	Err   error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s does not exist", e.Field, e.ID)
}

func (e *ReferenceError) Unwrap() []error {
	return []error{ErrInvalidInput, e.Err}
}
