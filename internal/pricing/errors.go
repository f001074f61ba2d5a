// Package pricing resolves (asset class, symbol) pairs to normalized price
// quotes, with per-source caching and a uniform failure taxonomy.
package pricing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a price-resolution failure so callers can branch on
// kind instead of message text.
type ErrorKind string

const (
	// KindNotFound means the upstream recognized the request but has no data
	// for the symbol. Not retryable; nothing was ever cached for it.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited means the upstream rejected the request with HTTP 429.
	// Never retried (retrying a rate limit makes it worse); cache fallback
	// permitted.
	KindRateLimited ErrorKind = "rate_limited"

	// KindUpstreamFailure covers network errors, timeouts, and 5xx responses.
	// Retryable with bounded attempts; cache fallback permitted.
	KindUpstreamFailure ErrorKind = "upstream_failure"

	// KindUnsupportedAssetClass means the asset class tag is outside the
	// closed enumeration. Caller error, surfaced immediately.
	KindUnsupportedAssetClass ErrorKind = "unsupported_asset_class"

	// KindMissingParameter means a required symbol or asset class is absent.
	KindMissingParameter ErrorKind = "missing_parameter"

	// KindMalformedData means the upstream response could not be parsed at
	// all. Handled like an upstream failure, including cache fallback.
	KindMalformedData ErrorKind = "malformed_upstream_data"
)

// Error is a tagged price-resolution failure.
type Error struct {
	Kind    ErrorKind
	Symbol  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("price lookup %s: %s (%s)", e.Symbol, e.Message, e.Kind)
	}
	return fmt.Sprintf("price lookup: %s (%s)", e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tagged pricing error.
func NewError(kind ErrorKind, symbol, message string, err error) *Error {
	return &Error{Kind: kind, Symbol: symbol, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, or KindUpstreamFailure when err is
// not a pricing error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUpstreamFailure
}

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindUpstreamFailure || k == KindMalformedData
}

// CacheFallback reports whether a stale cache entry may be served in place
// of a failure of this kind.
func (k ErrorKind) CacheFallback() bool {
	return k == KindRateLimited || k == KindUpstreamFailure || k == KindMalformedData
}
