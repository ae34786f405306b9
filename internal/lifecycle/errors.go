package lifecycle

import (
	"errors"
	"net/http"
)

// Failure category of a lifecycle operation. Kinds are errors themselves so
// callers can match with errors.Is(err, lifecycle.ErrNotFound).
type Kind string

const (
	ErrValidation   Kind = "validation failed"
	ErrNotFound     Kind = "submission not found"
	ErrPrecondition Kind = "precondition failed"
	ErrAssetMissing Kind = "asset missing"
	ErrGeneration   Kind = "generation failed"
)

func (k Kind) Error() string {
	return string(k)
}

func (k Kind) HTTPStatus() int {
	switch k {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Err     error
	Fields  map[string]string
	Kind    Kind
	Message string
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func validationError(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Status code for any error, 500 for errors that are not lifecycle errors
func HTTPStatus(err error) int {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind.HTTPStatus()
	}
	return http.StatusInternalServerError
}
