package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"timeout", fmt.Errorf("unit: %w", ErrTimeout), KindTimeout},
		{"insufficient", fmt.Errorf("fuse: %w", ErrInsufficientData), KindInsufficientData},
		{"invalid", Invalid("bad %s", "weight"), KindInvalidInput},
		{"missing", fmt.Errorf("rsi: %w", ErrMissingIndicator), KindMissingIndicator},
		{"transient", Transient("f1", errors.New("503")), KindProviderTransient},
		{"permanent", fmt.Errorf("fetch: %w", Permanent("f1", errors.New("404"))), KindProviderPermanent},
		{"canceled", fmt.Errorf("fetch: %w", context.Canceled), KindCanceled},
		{"deadline", context.DeadlineExceeded, KindProviderTransient},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), KindProviderTransient},
		{"unknown", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, KindProviderTransient.Retryable())
	for _, k := range []ErrorKind{KindProviderPermanent, KindInvalidInput, KindInsufficientData, KindTimeout, KindCanceled, KindInternal} {
		assert.False(t, k.Retryable(), k)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := Transient("000001", errors.New("rate limited"))
	assert.Equal(t, "provider transient error for 000001: rate limited", err.Error())
	assert.Equal(t, "provider permanent error: gone", Permanent("", errors.New("gone")).Error())
}
