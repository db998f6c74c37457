package batch

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fund-advisor/internal/interfaces"
	"fund-advisor/internal/logger"
	"fund-advisor/internal/signal"
	"fund-advisor/internal/trace"
	"fund-advisor/internal/types"
)

// Runner is the batch invocation surface.
type Runner interface {
	RunBatch(ctx context.Context, fundIDs []string, cfg Config) ([]types.AnalysisResult, types.BatchSummary, error)
}

var _ Runner = (*Orchestrator)(nil)

// Orchestrator fans a batch of funds out over a bounded worker pool. One
// fund's failure never affects another's result.
type Orchestrator struct {
	provider interfaces.DataProvider
	history  interfaces.History
	metrics  interfaces.Metrics
	now      func() time.Time
	newID    func() string
}

type Option func(*Orchestrator)

// WithHistory feeds previous scores into confidence and records every
// published recommendation.
func WithHistory(h interfaces.History) Option {
	return func(o *Orchestrator) { o.history = h }
}

func WithMetrics(m interfaces.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock replaces time.Now for CreatedAt stamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(provider interfaces.DataProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		metrics:  noopMetrics{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunBatch analyzes every fund and returns one result per id, in input
// order. Only an invalid cfg makes it return an error.
//
// When ctx is canceled, funds not yet started come back skipped and funds in
// flight come back failed, both with kind canceled. Results that were
// already complete are returned as they were.
func (o *Orchestrator) RunBatch(ctx context.Context, fundIDs []string, cfg Config) ([]types.AnalysisResult, types.BatchSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, types.BatchSummary{}, err
	}
	if o.provider == nil {
		return nil, types.BatchSummary{}, types.Invalid("batch: no data provider")
	}
	eng, err := signal.NewEngine(cfg.Scoring)
	if err != nil {
		return nil, types.BatchSummary{}, fmt.Errorf("batch: %w", err)
	}

	runID := o.newID()
	started := o.now()

	results := make([]types.AnalysisResult, len(fundIDs))
	for i, id := range fundIDs {
		results[i] = types.AnalysisResult{
			FundID:    id,
			Status:    types.StatusSkipped,
			ErrorKind: types.KindCanceled,
			Error:     "batch canceled before analysis started",
		}
	}

	// A plain group: a failed unit must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(cfg.MaxWorkers)
	for i, id := range fundIDs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = o.runUnit(ctx, eng, runID, id, cfg)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(runID, results, started, o.now().Sub(started), cfg.TopPicks)
	summary.Canceled = ctx.Err() != nil
	for _, r := range results {
		if r.Status == types.StatusSkipped {
			o.metrics.RecordResult(r.Status, r.ErrorKind)
		}
	}
	o.metrics.RecordLatency("batch", summary.Duration.Seconds())
	return results, summary, nil
}

// runUnit runs one fund's pipeline under its own deadline, retrying
// transient failures.
func (o *Orchestrator) runUnit(ctx context.Context, eng *signal.Engine, runID, fundID string, cfg Config) (res types.AnalysisResult) {
	ctx, span := trace.StartSpan(ctx, "batch.unit")
	defer span.End()

	o.metrics.InFlight(1)
	start := o.now()
	res = types.AnalysisResult{FundID: fundID}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic analyzing %s: %v", fundID, r)
			logger.ErrorWithErr(ctx, "Fund analysis panicked", err, "fund_id", fundID, "stack", string(debug.Stack()))
			res = failed(res, err, types.KindInternal)
		}
		res.Duration = o.now().Sub(start)
		o.metrics.InFlight(-1)
		o.metrics.RecordResult(res.Status, res.ErrorKind)
		o.metrics.RecordLatency("unit", res.Duration.Seconds())
	}()

	if fundID == "" {
		return failed(res, types.Invalid("empty fund id"), types.KindInvalidInput)
	}

	unitCtx, cancel := context.WithTimeoutCause(ctx, cfg.Timeout, types.ErrTimeout)
	defer cancel()

	rec, comp, attempts, err := o.analyzeWithRetry(unitCtx, eng, fundID, cfg)
	res.Attempts = attempts
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return failed(res, fmt.Errorf("batch canceled: %w", err), types.KindCanceled)
		case unitCtx.Err() != nil:
			return failed(res, fmt.Errorf("%w after %s: %v", types.ErrTimeout, cfg.Timeout, err), types.KindTimeout)
		}
		return failed(res, err, types.KindOf(err))
	}

	rec.ID = o.newID()
	rec.RunID = runID
	rec.CreatedAt = o.now().UTC()
	if o.history != nil {
		// a lost audit record does not invalidate the analysis
		if herr := o.history.Record(ctx, rec); herr != nil {
			logger.ErrorWithErr(ctx, "Failed to record recommendation", herr, "fund_id", fundID)
		}
	}
	logger.Signal(ctx, rec, "run_id", runID, "attempts", attempts)
	o.metrics.RecordSignal(rec.SignalType)

	res.Status = types.StatusSuccess
	res.Recommendation = &rec
	res.Composite = &comp
	return res
}

func (o *Orchestrator) analyzeWithRetry(ctx context.Context, eng *signal.Engine, fundID string, cfg Config) (types.Recommendation, types.CompositeScore, int, error) {
	for attempt := 1; ; attempt++ {
		rec, comp, err := o.analyzeOnce(ctx, eng, fundID)
		if err == nil {
			return rec, comp, attempt, nil
		}
		kind := types.KindOf(err)
		if !kind.Retryable() || attempt > cfg.MaxRetries || ctx.Err() != nil {
			return rec, comp, attempt, err
		}

		wait := cfg.Backoff.delay(attempt)
		o.metrics.RecordRetry(kind)
		logger.Warn(ctx, "Transient failure, retrying",
			"fund_id", fundID,
			"attempt", attempt,
			"max_retries", cfg.MaxRetries,
			"backoff_ms", wait.Milliseconds(),
			"error", err.Error(),
		)
		if serr := sleep(ctx, wait); serr != nil {
			return rec, comp, attempt, err
		}
	}
}

// analyzeOnce is one fetch-and-score cycle. Each call starts from a fresh
// snapshot so retries accumulate nothing.
func (o *Orchestrator) analyzeOnce(ctx context.Context, eng *signal.Engine, fundID string) (types.Recommendation, types.CompositeScore, error) {
	previous := math.NaN()
	if o.history != nil {
		score, ok, err := o.history.PreviousScore(ctx, fundID)
		switch {
		case err != nil:
			logger.Warn(ctx, "Previous score unavailable", "fund_id", fundID, "error", err.Error())
		case ok:
			previous = score
		}
	}

	snap, err := o.provider.Fetch(ctx, fundID)
	if err != nil {
		return types.Recommendation{}, types.CompositeScore{}, err
	}
	if snap.FundID == "" {
		snap.FundID = fundID
	}
	if snap.FundID != fundID {
		return types.Recommendation{}, types.CompositeScore{}, types.Permanent(fundID, fmt.Errorf("provider returned fund %s", snap.FundID))
	}
	return eng.Analyze(snap, previous)
}

func failed(res types.AnalysisResult, err error, kind types.ErrorKind) types.AnalysisResult {
	if kind == types.KindNone {
		kind = types.KindInternal
	}
	res.Status = types.StatusFailed
	res.ErrorKind = kind
	res.Error = err.Error()
	res.Recommendation = nil
	res.Composite = nil
	return res
}

type noopMetrics struct{}

func (noopMetrics) RecordResult(types.Status, types.ErrorKind) {}
func (noopMetrics) RecordRetry(types.ErrorKind) {}
func (noopMetrics) RecordSignal(types.SignalType) {}
func (noopMetrics) InFlight(int) {}
func (noopMetrics) RecordLatency(string, float64) {}
