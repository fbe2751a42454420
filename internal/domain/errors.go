// Package domain holds sentinel errors and cross-cutting types shared by
// every layer of the debate engine.
package domain

import "errors"

// Sentinel errors - check with errors.Is().
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrCancelled    = errors.New("cancelled")
	ErrTimeout      = errors.New("timeout")
)

// ErrorKind is the taxonomy from the spec's error handling design (§7).
// It rides alongside a wrapped sentinel error so transport can pick a
// status code and a machine-readable code without string matching.
type ErrorKind string

const (
	KindClientError         ErrorKind = "client_error"
	KindAuthError           ErrorKind = "auth_error"
	KindRateLimited         ErrorKind = "rate_limited"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindContentFilter       ErrorKind = "content_filter"
	KindFetchTimeout        ErrorKind = "fetch_timeout"
	KindFetchBlocked        ErrorKind = "fetch_blocked"
	KindTooLarge            ErrorKind = "too_large"
	KindParseError          ErrorKind = "parse_error"
	KindSchemaViolation     ErrorKind = "schema_violation"
	KindCancelled           ErrorKind = "cancelled"
	KindInternal            ErrorKind = "internal"
)

// KindError wraps an error with its taxonomy kind, preserving the
// original error for errors.Is/errors.As via Unwrap.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *KindError) Unwrap() error { return e.Err }

func (k ErrorKind) String() string { return string(k) }

// WithKind wraps err with a taxonomy kind.
func WithKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindClientError
	case errors.Is(err, ErrValidation):
		return KindClientError
	case errors.Is(err, ErrUnauthorized):
		return KindAuthError
	case errors.Is(err, ErrForbidden):
		return KindAuthError
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrTimeout):
		return KindFetchTimeout
	default:
		return KindInternal
	}
}
