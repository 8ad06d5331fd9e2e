package telemetry

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	// KindUnavailable covers network failures, timeouts, auth rejections and
	// non-success provider status codes.
	KindUnavailable ErrorKind = "unavailable"
	// KindMalformed covers unexpected payload shapes or types.
	KindMalformed ErrorKind = "malformed"
)

// ProviderError is returned by the client instead of a zero-valued Sample so
// the caller can mark the asset degraded rather than record false data.
type ProviderError struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Op is the provider operation that failed (authorization, track).
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a provider-unreachable failure.
func Unavailable(op string, err error) *ProviderError {
	return &ProviderError{Kind: KindUnavailable, Op: op, Err: err}
}

// Malformed wraps err as an unexpected-payload failure.
func Malformed(op string, err error) *ProviderError {
	return &ProviderError{Kind: KindMalformed, Op: op, Err: err}
}

// AsProviderError unwraps err into a *ProviderError if it is one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
