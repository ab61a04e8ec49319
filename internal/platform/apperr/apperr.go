// Package apperr defines the error kinds surfaced by the HINE services. Every
// error that crosses a service boundary carries one of four stable kinds so the
// HTTP layer can pick a status code without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-checkable error category.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindReferential Kind = "referential_integrity"
	KindNotFound    Kind = "not_found"
	KindPersistence Kind = "persistence"
)

// Error is the classified error returned by services and repositories.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input or reference, when known
	// (e.g. "patient_id", "doctor_id").
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindPersistence {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or malformed submission field.
func Validation(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Referential reports a reference to an entity that does not exist.
func Referential(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindReferential, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a lookup by identifier that matched nothing.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps any store failure not otherwise classified.
func Persistence(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindPersistence for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindReferential:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error envelope written to clients. Persistence errors never
// expose the underlying driver message.
type Body struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ToBody converts err to its client-facing envelope.
func ToBody(err error) Body {
	var e *Error
	if !errors.As(err, &e) {
		return Body{Kind: KindPersistence, Message: "internal server error"}
	}
	if e.Kind == KindPersistence {
		return Body{Kind: e.Kind, Message: e.Message}
	}
	return Body{Kind: e.Kind, Message: e.Message, Field: e.Field}
}
