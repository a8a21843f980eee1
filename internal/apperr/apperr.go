// Package apperr defines the error kinds surfaced to API callers and their HTTP mapping.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindValidation       Kind = "VALIDATION_ERROR"
	KindNotFound         Kind = "NOT_FOUND"
	KindConflict         Kind = "CONFLICT"
	KindExternalProvider Kind = "EXTERNAL_PROVIDER_ERROR"
	KindSignatureInvalid Kind = "SIGNATURE_INVALID"
	KindInternal         Kind = "INTERNAL_ERROR"
)

type Code string

const (
	CodeEmptyCart          Code = "EmptyCart"
	CodeProductUnavailable Code = "ProductUnavailable"
	CodeInsufficientStock  Code = "InsufficientStock"
)

type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
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

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) WithCode(code Code) *Error {
	e.Code = code
	return e
}

func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

func Validation(msg string) *Error { return New(KindValidation, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Conflict(code Code, msg string) *Error { return New(KindConflict, msg).WithCode(code) }

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports KindInternal for errors that carry no kind.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation, KindConflict, KindSignatureInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
