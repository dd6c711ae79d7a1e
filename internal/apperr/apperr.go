// Package apperr defines the error kinds every marketplace operation can
// terminate with. Callers test for a kind with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password too long (max 72 bytes)")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access forbidden for your role")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTaskLocked         = errors.New("task is locked")
	ErrPaymentRequired    = errors.New("payment required")
	ErrArtifactMissing    = errors.New("deliverable not found")
	ErrValidation         = errors.New("validation failed")
)

// Error attaches a detail message to one of the error kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an *Error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return New(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return New(ErrNotFound, format, args...)
}

func InvalidTransitionf(format string, args ...any) error {
	return New(ErrInvalidTransition, format, args...)
}

func TaskLockedf(format string, args ...any) error {
	return New(ErrTaskLocked, format, args...)
}

// Message returns the detail of err when it is an *Error, else the kind text
// of the first known kind it wraps, else "internal error". It never exposes
// infrastructure error text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "internal error"
}

var kinds = []error{
	ErrDuplicateEmail, ErrInvalidCredentials, ErrPasswordTooLong, ErrInvalidToken, ErrForbidden,
	ErrNotFound, ErrInvalidTransition, ErrTaskLocked, ErrPaymentRequired, ErrArtifactMissing, ErrValidation,
}
