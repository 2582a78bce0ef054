// Package apperr defines the error taxonomy shared by all mutating operations.
// Every error surfaced to a caller carries a Kind; the HTTP layer maps kinds
// to status codes and renders a structured body.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidTransition   Kind = "invalid_transition"
	KindForbidden           Kind = "forbidden"
	KindPricingNotFound     Kind = "pricing_not_found"
	KindInvalidQuantity     Kind = "invalid_quantity"
	KindEmptyOrder          Kind = "empty_order"
	KindInvalidSchedule     Kind = "invalid_schedule"
	KindInsufficientPoints  Kind = "insufficient_points"
	KindNotFound            Kind = "not_found"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindStorageFailure      Kind = "storage_failure"
	KindValidation          Kind = "validation_failed"
	KindUnauthorized        Kind = "unauthorized"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, wrapped: err}
}

// WithField attaches a per-field message, used for validation errors.
func (e *Error) WithField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
	return e
}

// KindOf extracts the Kind from err, or KindStorageFailure when err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorageFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
