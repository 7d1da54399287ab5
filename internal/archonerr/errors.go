// Package archonerr defines Archon's error taxonomy (§7) so every layer
// above storage/transport can branch on error kind instead of string
// matching, and the HTTP layer can translate a kind to a status code in one
// place.
package archonerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP translation and logging.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

// Error is a typed, wrapped error carrying a Kind and an optional
// client-safe message distinct from the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newErr(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error    { return newErr(KindNotFound, format, args...) }
func Conflict(format string, args ...any) *Error    { return newErr(KindConflict, format, args...) }
func Unauthorized(format string, args ...any) *Error {
	return newErr(KindUnauthorized, format, args...)
}
func Forbidden(format string, args ...any) *Error   { return newErr(KindForbidden, format, args...) }
func RateLimited(format string, args ...any) *Error { return newErr(KindRateLimited, format, args...) }

// Wrap attaches kind to cause, keeping cause available via errors.Unwrap.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Internal wraps an unexpected error as a 500-class failure.
func Internal(cause error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf unwraps err looking for an *Error and returns its Kind, defaulting
// to KindInternal for plain errors so unexpected failures surface as 500s.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode maps a Kind to the HTTP status the httpapi layer should return.
func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
