package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError signals that a referenced entity does not exist.
// Cross-tenant denials are deliberately surfaced as NotFoundError so a caller
// cannot probe for another tenant's resources.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// ConflictError signals a uniqueness violation (duplicate email, duplicate submission).
type ConflictError struct {
	message string
}

func NewConflictError(msg string) error {
	return &ConflictError{message: msg}
}

func (err ConflictError) Error() string {
	return err.message
}

// AmbiguousInputError signals that a disambiguating field was omitted while
// more than one valid match exists. The caller must supply the field; we never
// pick a match on their behalf.
type AmbiguousInputError struct {
	message string
}

func NewAmbiguousInputError(msg string) error {
	return &AmbiguousInputError{message: msg}
}

func (err AmbiguousInputError) Error() string {
	return err.message
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
