package types

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies per-fund failures for retry policy and reporting.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindMissingIndicator  ErrorKind = "missing_indicator"
	KindInsufficientData  ErrorKind = "insufficient_data"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindProviderTransient ErrorKind = "provider_transient"
	KindProviderPermanent ErrorKind = "provider_permanent"
	KindTimeout           ErrorKind = "timeout"
	KindCanceled          ErrorKind = "canceled"
	KindInternal          ErrorKind = "internal"
)

var (
	// ErrMissingIndicator marks a dropped sample or empty category. It is
	// absorbed by weight redistribution and never reaches a result.
	ErrMissingIndicator = errors.New("missing indicator")
	ErrInsufficientData = errors.New("insufficient data: no category has indicators")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTimeout          = errors.New("analysis timed out")
)

// ProviderError wraps a data provider failure with its retry class.
type ProviderError struct {
	FundID    string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	class := "permanent"
	if e.Transient {
		class = "transient"
	}
	if e.FundID == "" {
		return fmt.Sprintf("provider %s error: %v", class, e.Err)
	}
	return fmt.Sprintf("provider %s error for %s: %v", class, e.FundID, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient marks err as retryable.
func Transient(fundID string, err error) error {
	return &ProviderError{FundID: fundID, Transient: true, Err: err}
}

// Permanent marks err as not retryable.
func Permanent(fundID string, err error) error {
	return &ProviderError{FundID: fundID, Transient: false, Err: err}
}

// Invalid wraps a message as ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// KindOf classifies err. Unclassified network timeouts count as transient,
// anything else unknown as internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrMissingIndicator):
		return KindMissingIndicator
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Transient {
			return KindProviderTransient
		}
		return KindProviderPermanent
	}

	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindProviderTransient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindProviderTransient
	}
	return KindInternal
}

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindProviderTransient
}
