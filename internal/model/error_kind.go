package model

import "fmt"

// ErrorKind is the closed set of failure classes reported to callers.
type ErrorKind string

const (
	// ErrorKindNotFound means the operation or a referenced resource does not exist.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindValidation means malformed arguments or a failed confirmation check.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindPermission means the caller lacks rights for the action.
	ErrorKindPermission ErrorKind = "permission"
	// ErrorKindAuth means credentials are missing, invalid or expired.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindRateLimited means the upstream is throttling.
	ErrorKindRateLimited ErrorKind = "rate_limited"
	// ErrorKindUpstreamUnavailable means network, timeout or 5xx failures from the wrapped service.
	ErrorKindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// ErrorKindInternal means an unexpected failure inside the runtime.
	ErrorKindInternal ErrorKind = "internal"
)

// ErrorKinds returns all the error kinds.
func ErrorKinds() []ErrorKind {
	return []ErrorKind{
		ErrorKindNotFound,
		ErrorKindValidation,
		ErrorKindPermission,
		ErrorKindAuth,
		ErrorKindRateLimited,
		ErrorKindUpstreamUnavailable,
		ErrorKindInternal,
	}
}

// Valid returns true if the kind is one of the known kinds.
func (k ErrorKind) Valid() bool {
	switch k {
	case ErrorKindNotFound, ErrorKindValidation, ErrorKindPermission, ErrorKindAuth,
		ErrorKindRateLimited, ErrorKindUpstreamUnavailable, ErrorKindInternal:
		return true
	}
	return false
}

// Retriable returns true when reissuing the same invocation may succeed.
func (k ErrorKind) Retriable() bool {
	switch k {
	case ErrorKindRateLimited, ErrorKindUpstreamUnavailable:
		return true
	}
	return false
}

// StructuredError is the canonical failure shape returned across the runtime boundary.
type StructuredError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retriable bool      `json:"retriable"`
}

// NewStructuredError returns a structured error with the retriable flag derived from the kind.
// Unknown kinds are coerced to internal.
func NewStructuredError(kind ErrorKind, msg string) StructuredError {
	if !kind.Valid() {
		kind = ErrorKindInternal
	}
	return StructuredError{
		Kind:      kind,
		Message:   msg,
		Retriable: kind.Retriable(),
	}
}

// Error satisfies the error interface so a structured error can travel as one.
func (e StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindError is a categorized error returned by operation handlers. It wraps
// the real error so the chain is preserved while the kind travels with it.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string { return e.Err.Error() }

func (e *KindError) Unwrap() error { return e.Err }

func newKindError(kind ErrorKind, format string, args ...any) *KindError {
	return &KindError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) *KindError {
	return newKindError(ErrorKindNotFound, format, args...)
}

// Validation creates a validation error.
func Validation(format string, args ...any) *KindError {
	return newKindError(ErrorKindValidation, format, args...)
}

// Permission creates a permission error.
func Permission(format string, args ...any) *KindError {
	return newKindError(ErrorKindPermission, format, args...)
}

// Auth creates an authentication error.
func Auth(format string, args ...any) *KindError {
	return newKindError(ErrorKindAuth, format, args...)
}

// RateLimited creates a rate limited error.
func RateLimited(format string, args ...any) *KindError {
	return newKindError(ErrorKindRateLimited, format, args...)
}

// UpstreamUnavailable creates an upstream unavailable error.
func UpstreamUnavailable(format string, args ...any) *KindError {
	return newKindError(ErrorKindUpstreamUnavailable, format, args...)
}

// Internal creates an internal error.
func Internal(format string, args ...any) *KindError {
	return newKindError(ErrorKindInternal, format, args...)
}
