package interfaces

import (
	"context"

	"fund-advisor/internal/report"
	"fund-advisor/internal/types"
)

// DataProvider fetches the indicator snapshot of one fund. Failures should be
// wrapped with types.Transient or types.Permanent so retries can tell them
// apart.
type DataProvider interface {
	Fetch(ctx context.Context, fundID string) (types.FundSnapshot, error)
}

// RecommendationSink persists published recommendations.
type RecommendationSink interface {
	Record(ctx context.Context, rec types.Recommendation) error
}

// ScoreHistory recalls the last composite score of a fund.
type ScoreHistory interface {
	PreviousScore(ctx context.Context, fundID string) (score float64, ok bool, err error)
}

// History is a sink that can also answer ScoreHistory queries.
type History interface {
	RecommendationSink
	ScoreHistory
}

// Metrics receives batch telemetry. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordResult(status types.Status, kind types.ErrorKind)
	RecordRetry(kind types.ErrorKind)
	RecordSignal(s types.SignalType)
	InFlight(delta int)
	RecordLatency(op string, seconds float64)
}

// ReportRenderer turns one analysis into a report document.
type ReportRenderer interface {
	Render(ctx context.Context, p report.Payload) error
}
