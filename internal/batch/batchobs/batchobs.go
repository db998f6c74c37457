package batchobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"fund-advisor/internal/batch"
	"fund-advisor/internal/logger"
	"fund-advisor/internal/trace"
	"fund-advisor/internal/types"
)

type observableRunner struct {
	runner batch.Runner
}

var _ batch.Runner = (*observableRunner)(nil)

func Wrap(runner batch.Runner) batch.Runner {
	return &observableRunner{runner: runner}
}

func (o *observableRunner) RunBatch(ctx context.Context, fundIDs []string, cfg batch.Config) ([]types.AnalysisResult, types.BatchSummary, error) {
	ctx, span := trace.StartSpan(ctx, "batch.RunBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("fund_count", len(fundIDs)))

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting batch", trace.Fields(
		"fund_count", len(fundIDs),
		"max_workers", cfg.MaxWorkers,
		"timeout", cfg.Timeout.String(),
		"max_retries", cfg.MaxRetries,
	))

	results, summary, err := o.runner.RunBatch(ctx, fundIDs, cfg)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Batch rejected", err, trace.Fields(
			"fund_count", len(fundIDs),
			"duration_ms", time.Since(start).Milliseconds(),
		))
		return results, summary, err
	}

	span.SetAttributes(
		attribute.String("run_id", summary.RunID),
		attribute.Int("success", summary.Success),
		attribute.Int("failed", summary.Failed),
		attribute.Int("skipped", summary.Skipped),
	)
	fields := trace.Fields(
		"run_id", summary.RunID,
		"total", summary.Total,
		"success", summary.Success,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"timeouts", summary.Timeouts,
		"canceled", summary.Canceled,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	for kind, n := range summary.ByKind {
		fields["failed_"+string(kind)] = n
	}
	if summary.Failed > 0 || summary.Canceled {
		logger.WarnSkip(ctx, 1, "Batch completed with failures", fields)
	} else {
		logger.InfoSkip(ctx, 1, "Batch completed", fields)
	}
	return results, summary, nil
}
