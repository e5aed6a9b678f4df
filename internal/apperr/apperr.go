// Package apperr defines the error taxonomy shared by storage, the pipelines
// and the HTTP layer. Each kind maps to one HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"    // 400
	KindNotFound        Kind = "NOT_FOUND"        // 404
	KindConflict        Kind = "CONFLICT"         // 409
	KindExternalService Kind = "EXTERNAL_SERVICE" // 502
	KindStorage         Kind = "STORAGE"          // 500
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Field   string // set for field-level validation failures
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func InvalidInput(field, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Status: 400, Message: msg, Field: field}
}

func NotFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Status: 404, Message: fmt.Sprintf("%s not found: %s", what, id)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Status: 409, Message: msg}
}

func ExternalService(service string, err error) *Error {
	return &Error{Kind: KindExternalService, Status: 502, Message: fmt.Sprintf("%s: %v", service, err)}
}

func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Status: 500, Message: err.Error()}
}

// Is reports whether err is (or wraps) an Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 500
}

// KindOf returns the kind for err, defaulting to KindStorage.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
