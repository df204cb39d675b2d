// Package apperr defines the error taxonomy shared by the engines and the HTTP
// layer: NotFound, Validation and Internal.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the client-visible response.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error carries a Kind, a client-safe message and optional validation details.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing complaint, user or notification.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input or an out-of-domain enum value.
func Validation(msg string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

// Internal wraps a store or unexpected failure. The message shown to clients
// is always generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, KindInternal
// otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
