package provider

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"fund-advisor/internal/interfaces"
	"fund-advisor/internal/types"
)

// rateLimited shares one token bucket across every caller of the provider.
type rateLimited struct {
	inner   interfaces.DataProvider
	limiter *rate.Limiter
}

// WithRateLimit caps inner at perSecond fetches with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(inner interfaces.DataProvider, perSecond float64, burst int) interfaces.DataProvider {
	if perSecond <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimited) Fetch(ctx context.Context, fundID string) (types.FundSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.FundSnapshot{}, ctxErr
		}
		// the deadline would pass before a token frees up
		return types.FundSnapshot{}, types.Transient(fundID, fmt.Errorf("rate limit: %w", err))
	}
	return r.inner.Fetch(ctx, fundID)
}
