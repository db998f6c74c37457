package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"fund-advisor/internal/batch"
	"fund-advisor/internal/batch/batchobs"
	"fund-advisor/internal/history"
	"fund-advisor/internal/interfaces"
	"fund-advisor/internal/logger"
	"fund-advisor/internal/metrics"
	"fund-advisor/internal/provider"
	"fund-advisor/internal/provider/providerobs"
	"fund-advisor/internal/report"
	"fund-advisor/internal/store"
	"fund-advisor/internal/types"
)

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// openHistory opens the recommendation history and compresses days past
// the retention window.
func openHistory(ctx context.Context, cfg *store.Config) (*history.Store, error) {
	h, err := history.Open(ctx, cfg.History.Dir)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if n := cfg.History.RetentionDays; n > 0 {
		compressed, err := h.CompressOlder(n, time.Now())
		if err != nil {
			logger.Warn(ctx, "Failed to compress old history", "error", err)
		} else if compressed > 0 {
			logger.Info(ctx, "Compressed old history files", "count", compressed)
		}
	}
	return h, nil
}

// initializeProvider builds the configured data provider behind the shared
// rate limiter, with observability middleware outermost.
func initializeProvider(ctx context.Context, cfg *store.Config, seed int64) interfaces.DataProvider {
	var p interfaces.DataProvider
	switch cfg.Provider.Kind {
	case "file":
		logger.Info(ctx, "Reading fund histories from disk", "dir", cfg.Provider.Dir)
		p = provider.NewFileProvider(cfg.Provider.Dir)
	case "http":
		logger.Info(ctx, "Fetching fund histories over HTTP", "url", cfg.Provider.URL)
		p = provider.NewHTTPProvider(cfg.Provider.URL, os.Getenv(cfg.Provider.TokenEnv), cfg.Provider.Timeout)
	default:
		logger.Warn(ctx, "Using MOCK fund histories - recommendations are synthetic", "seed", seed)
		p = provider.NewMockProvider(seed, cfg.Provider.HistoryDays)
	}

	p = provider.WithRateLimit(p, cfg.Provider.RatePerSec, cfg.Provider.Burst)
	return providerobs.Wrap(p, cfg.Provider.Kind)
}

func initializeRunner(p interfaces.DataProvider, h interfaces.History, m interfaces.Metrics) batch.Runner {
	return batchobs.Wrap(batch.New(p, batch.WithHistory(h), batch.WithMetrics(m)))
}

// renderReports writes one report per successful fund. A failed report is
// logged and does not stop the others.
func renderReports(ctx context.Context, r interfaces.ReportRenderer, results []types.AnalysisResult) int {
	written := 0
	for _, res := range results {
		if res.Status != types.StatusSuccess || res.Recommendation == nil || res.Composite == nil {
			continue
		}
		if err := r.Render(ctx, report.Build(*res.Recommendation, *res.Composite)); err != nil {
			logger.ErrorWithErr(ctx, "Failed to render report", err, "fund_id", res.FundID)
			continue
		}
		written++
	}
	return written
}

// writeMetrics dumps the run's Prometheus metrics for a node_exporter
// textfile collector.
func writeMetrics(ctx context.Context, rec *metrics.Recorder, path string) {
	if path == "" {
		return
	}
	if err := rec.WriteTextfile(path); err != nil {
		logger.Warn(ctx, "Failed to write metrics textfile", "path", path, "error", err)
	}
}
