package models

import "fmt"

// Kind classifies a domain error so callers can decide how to react to it.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRange      Kind = "range"
	KindConflict   Kind = "conflict"
	KindIntegrity  Kind = "integrity"
	KindNotFound   Kind = "not_found"
)

// Error is the domain error returned by aggregate operations and services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrValidation = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrRange      = &Error{Kind: KindRange, Message: "value out of range"}
	ErrConflict   = &Error{Kind: KindConflict, Message: "conflict"}
	ErrIntegrity  = &Error{Kind: KindIntegrity, Message: "referential integrity violation"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind. A range error is also a validation error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindValidation && e.Kind == KindRange
}

// ErrorKind returns the classification as a plain string.
func (e *Error) ErrorKind() string {
	return string(e.Kind)
}

// Errorf builds a domain error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound is shorthand for the most common lookup failure.
func NotFound(format string, args ...any) *Error {
	return Errorf(KindNotFound, format, args...)
}
