// Package apierr defines the error taxonomy shared across the collector and
// storage-service binaries.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry and HTTP-status decisions.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindConnection    Kind = "connection"
	KindQuery         Kind = "query"
	KindSerialization Kind = "serialization"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindTimeout       Kind = "timeout"
	KindRateLimited   Kind = "rate_limited"
	KindOverload      Kind = "overload"
	KindInternal      Kind = "internal"
)

// Error is the concrete error type returned across package boundaries. It
// carries a Kind so callers can decide retryability and HTTP status without
// string matching, and wraps an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, apierr.KindX) style matching against a sentinel
// constructed with New(kind, "").
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Retryable reports whether an error of this kind is worth retrying.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindConnection, KindTimeout, KindRateLimited, KindOverload:
		return true
	default:
		return false
	}
}

// Retryable reports whether err (or any error in its chain) carries a
// retryable Kind. Errors that are not *Error are treated as non-retryable.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err is
// not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Code returns the machine-readable error code used in the JSON envelope.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConnection, KindQuery, KindTimeout, KindOverload:
		return "database_error"
	case KindRateLimited:
		return "external_error"
	default:
		return "server_error"
	}
}

// Envelope is the JSON error body returned at API boundaries.
type Envelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EnvelopeFor builds the JSON envelope for err.
func EnvelopeFor(err error) Envelope {
	var e *Error
	if errors.As(err, &e) {
		return Envelope{Error: e.Kind.Code(), Message: e.Message}
	}
	return Envelope{Error: KindInternal.Code(), Message: err.Error()}
}

// HTTPStatus maps a Kind to the HTTP status code the query layer should
// surface at its boundary. Validation is always 4xx; everything else is 5xx
// except NotFound, which is 404, and RateLimited, which is 429.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindRateLimited:
		return 429
	case KindTimeout:
		return 504
	default:
		return 500
	}
}
