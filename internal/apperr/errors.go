// Package apperr defines the error kinds shared by the sync and analytics
// layers. Callers match on kind with errors.Is against the Err* sentinels.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindNotFound            Kind = "NOT_FOUND"
	KindMappingAnomaly      Kind = "MAPPING_ANOMALY"
	KindValidation          Kind = "VALIDATION"
	KindSyncInProgress      Kind = "SYNC_IN_PROGRESS"
	KindInternal            Kind = "INTERNAL"
)

// Retryable reports whether a caller may reasonably retry an operation that
// failed with this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindUpstreamUnavailable, KindSyncInProgress:
		return true
	}
	return false
}

// Error is the domain error type with structured metadata.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is matching.
var (
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrRateLimited         = &Error{Kind: KindRateLimited, Message: "rate limited"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable, Message: "upstream unavailable"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrMappingAnomaly      = &Error{Kind: KindMappingAnomaly, Message: "mapping anomaly"}
	ErrValidation          = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrSyncInProgress      = &Error{Kind: KindSyncInProgress, Message: "sync in progress"}
	ErrInternal            = &Error{Kind: KindInternal, Message: "internal error"}
)

// New creates an error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error with a kind and a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithMetadata attaches key/value context and returns e.
func (e *Error) WithMetadata(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Validationf is shorthand for a validation error.
func Validationf(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// NotFoundf is shorthand for a not-found error.
func NotFoundf(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}
