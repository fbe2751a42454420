package llm

import "errors"

// Kind is the Provider Adapter (C1) error taxonomy from spec §4.1.
// Adapters return these classified errors rather than raising raw
// transport errors across the abstraction.
type Kind string

const (
	KindRateLimit        Kind = "rate_limit"
	KindAuthError        Kind = "auth_error"
	KindTimeout          Kind = "timeout"
	KindTransientNetwork Kind = "transient_network"
	KindBadRequest       Kind = "bad_request"
	KindContentFilter    Kind = "content_filter"
	KindServerError      Kind = "server_error"
	KindUnknown          Kind = "unknown"
)

// ProviderError is the typed error every Provider implementation returns.
type ProviderError struct {
	Kind       Kind
	ProviderID string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.ProviderID + " " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with a classified kind and provider id.
func NewProviderError(providerID string, kind Kind, err error) *ProviderError {
	return &ProviderError{Kind: kind, ProviderID: providerID, Err: err}
}

// KindOf extracts Kind from err, defaulting to KindUnknown.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Advances reports whether the Gateway (C2) should try the next
// provider on this error kind (spec §4.2: advances on rate_limit,
// auth_error, timeout, server_error, transient_network; terminal on
// bad_request, content_filter).
func (k Kind) Advances() bool {
	switch k {
	case KindRateLimit, KindAuthError, KindTimeout, KindServerError, KindTransientNetwork:
		return true
	default:
		return false
	}
}

// ErrStreamAborted is surfaced when a mid-stream error truncates a turn
// after streaming has already begun (spec §4.2).
var ErrStreamAborted = errors.New("stream_aborted")
