// Package provider defines the error contract shared by all external service
// providers (speech recognition, acoustic quality, feature extraction).
//
// Provider failures are fatal for the analysis that triggered them: the
// pipeline performs no retries of its own and surfaces the failure kind so
// the transport layer can map it to an appropriate status.
package provider

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind uint8

const (
	// KindUnavailable covers connection failures and 5xx responses.
	KindUnavailable Kind = iota

	// KindTimeout covers deadline and cancellation failures.
	KindTimeout

	// KindUnauthorized covers authentication and authorization failures.
	KindUnauthorized

	// KindMalformed covers responses the client could not decode.
	KindMalformed
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a classified provider failure. Name identifies the provider,
// Kind drives transport-level status mapping, Err carries the cause.
type Error struct {
	Name string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Name, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Name, e.Kind, e.Err)
}

// Unwrap exposes the cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a classified provider failure.
func NewError(name string, kind Kind, err error) *Error {
	return &Error{Name: name, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err. Non-provider errors report
// KindUnavailable, the most conservative mapping.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnavailable
}

// IsProviderError reports whether err is (or wraps) a classified provider
// failure.
func IsProviderError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
