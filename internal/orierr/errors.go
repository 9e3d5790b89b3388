// Package orierr defines the error taxonomy shared by every Orin package:
// a small set of Kind values, a Error type that carries one, and sentinel
// values components can compare against with errors.Is.
package orierr

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way spec section 7 does, by kind rather
// than by concrete type. Callers branch on Kind, not on package-local
// error variables.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindSecurity      Kind = "security"
	KindResourceLimit Kind = "resource_limit"
	KindNotFound      Kind = "not_found"
	KindProvider      Kind = "provider"
	KindTimeout       Kind = "timeout"
	KindCancellation  Kind = "cancellation"
	KindState         Kind = "state"
	KindComponent     Kind = "component"
	KindInternal      Kind = "internal"
)

// Error is the structured error every script-facing API returns. Kind
// drives caller behavior (retry, surface-to-script, trip-breaker); the
// wrapped error carries the underlying cause for %w-based inspection.
type Error struct {
	Kind          Kind
	Component     string
	Message       string
	CorrelationID string
	Retryable     bool
	Err           error
}

func (e *Error) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Component, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a structured error of the given kind.
func New(kind Kind, component, message string) *Error {
	return &Error{Kind: kind, Component: component, Message: message}
}

// Wrap builds a structured error that wraps an underlying cause.
func Wrap(kind Kind, component string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, Message: err.Error(), Err: err}
}

// WithCorrelation attaches a correlation id and returns the same error for
// chaining at the call site.
func (e *Error) WithCorrelation(id string) *Error {
	e.CorrelationID = id
	return e
}

// WithRetry marks the error as retryable (used by ProviderError's
// transient/permanent split).
func (e *Error) WithRetry(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, orierr.New(orierr.KindNotFound, "", "")) style checks
// work; callers more commonly use the Kind-specific sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel values for errors.Is comparisons against a fixed Kind,
// independent of message or component.
var (
	ErrPathEscape       = New(KindSecurity, "sandbox", "path escapes allowed roots")
	ErrSymlinkEscape    = New(KindSecurity, "sandbox", "symlink resolution escapes allowed roots")
	ErrMissingSandbox   = New(KindSecurity, "registry", "I/O-capable tool registered without a sandbox")
	ErrAlreadyExists    = New(KindComponent, "registry", "already registered")
	ErrNotFound         = New(KindNotFound, "registry", "not found")
	ErrRecursionLimit   = New(KindComponent, "agent", "recursion limit exceeded")
	ErrResourceExceeded = New(KindResourceLimit, "sandbox", "resource limit exceeded")
	ErrTimeout          = New(KindTimeout, "", "operation timed out")
	ErrCancelled        = New(KindCancellation, "", "operation cancelled")
)

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// defaulting to KindInternal for anything else — matching spec.md's
// "invariant violation ... never silently dropped" policy for
// InternalError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
