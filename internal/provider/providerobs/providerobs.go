package providerobs

import (
	"context"
	"time"

	"fund-advisor/internal/interfaces"
	"fund-advisor/internal/logger"
	"fund-advisor/internal/trace"
	"fund-advisor/internal/types"
)

// observableProvider wraps a DataProvider with logging and tracing
type observableProvider struct {
	inner interfaces.DataProvider
	name  string
}

// Wrap wraps a DataProvider with observability middleware
func Wrap(inner interfaces.DataProvider, name string) interfaces.DataProvider {
	return &observableProvider{inner: inner, name: name}
}

func (o *observableProvider) Fetch(ctx context.Context, fundID string) (types.FundSnapshot, error) {
	ctx, span := trace.StartSpan(ctx, "provider.Fetch")
	defer span.End()

	fields := trace.Fields("provider", o.name, "fund_id", fundID)
	logger.DebugSkip(ctx, 1, "Fetching fund snapshot", fields)
	start := time.Now()

	snap, err := o.inner.Fetch(ctx, fundID)

	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		kind := types.KindOf(err)
		fields["error_kind"] = string(kind)
		if kind.Retryable() {
			fields["error"] = err.Error()
			logger.WarnSkip(ctx, 1, "Fund snapshot fetch failed, retryable", fields)
		} else {
			logger.ErrorWithErrSkip(ctx, 1, "Fund snapshot fetch failed", err, fields)
		}
		return snap, err
	}

	fields["sample_count"] = len(snap.Samples)
	fields["nav"] = snap.NAV
	logger.DebugSkip(ctx, 1, "Fund snapshot fetched", fields)
	return snap, nil
}
