package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable category of a caller-facing failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindForbidden   Kind = "forbidden"
	KindClosed      Kind = "closed"
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}

// Error carries a Kind plus a human readable reason.
// Fields is only populated for validation failures.
type Error struct {
	Kind   Kind
	Reason string
	Fields FieldErrors
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperrors.Forbidden("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation builds a validation failure with per-field details.
func Validation(fields FieldErrors) *Error {
	return &Error{Kind: KindValidation, Reason: "one or more fields are invalid", Fields: fields}
}

// Invalid builds a validation failure for a single field.
func Invalid(field, message string) *Error {
	fields := FieldErrors{}
	fields.Add(field, message)
	return Validation(fields)
}

// Forbidden builds an authorization denial.
func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

// Closed signals a temporal rejection (the same input would have succeeded earlier).
func Closed(reason string) *Error {
	return &Error{Kind: KindClosed, Reason: reason}
}

// NotFound signals a missing entity.
func NotFound(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

// Unavailable wraps an infrastructure failure.
func Unavailable(reason string, err error) *Error {
	return &Error{Kind: KindUnavailable, Reason: reason, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// As extracts the *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
