// Package apperr classifies failures into the small set of outcomes the
// HTTP surface knows how to report.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	// KindInternal is the zero value so unclassified errors never leak detail.
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, an optional client-facing message and the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Kind.String() + ": " + e.Message
	case e.Err != nil:
		return e.Kind.String() + ": " + e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func InvalidInput(msg string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg, Err: err}
}

func Unauthorized(err error) *Error {
	return &Error{Kind: KindUnauthorized, Err: err}
}

func Conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message. Internal errors never have one.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return ""
}
