package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"fund-advisor/internal/logger"
	"fund-advisor/internal/metrics"
	"fund-advisor/internal/report"
	"fund-advisor/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	funds := flag.String("funds", "", "comma-separated fund ids, overrides the configured list")
	seed := flag.Int64("seed", 1, "seed for the mock provider")
	jsonOut := flag.String("json", "", "write results and summary as JSON to this file")
	reports := flag.Bool("reports", false, "render one report per successful fund")
	format := flag.String("format", string(report.FormatMarkdown), "report format: md or json")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, *configPath, *funds, *seed, *jsonOut, *reports, report.Format(*format))
	stop()
	_ = logger.Shutdown(context.Background())
	os.Exit(code)
}

func run(ctx context.Context, configPath, funds string, seed int64, jsonOut string, reports bool, format report.Format) int {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ids := cfg.Funds
	if funds != "" {
		ids = splitIDs(funds)
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "No funds configured for analysis")
		return 1
	}

	var renderer *report.Renderer
	if reports {
		if renderer, err = report.NewRenderer(cfg.Report.Dir, format); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	hist, err := openHistory(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "History unavailable", err)
		return 1
	}

	rec := metrics.New()
	prov := initializeProvider(ctx, cfg, seed)
	runner := initializeRunner(prov, hist, rec)

	results, summary, err := runner.RunBatch(ctx, ids, cfg.BatchConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch rejected: %v\n", err)
		return 1
	}

	if renderer != nil {
		n := renderReports(ctx, renderer, results)
		logger.Info(ctx, "Reports written", "count", n, "dir", cfg.Report.Dir)
	}
	writeMetrics(ctx, rec, cfg.Metrics.Textfile)
	printSummary(summary, results)

	if jsonOut != "" {
		if err := saveJSON(jsonOut, results, summary); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", jsonOut, err)
			return 1
		}
		fmt.Printf("Results written to %s\n", jsonOut)
	}
	if summary.Canceled {
		return 130
	}
	return 0
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func printSummary(s types.BatchSummary, results []types.AnalysisResult) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                       BATCH SUMMARY")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Run ID:        %s\n", s.RunID)
	fmt.Printf("Started:       %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration:      %s\n", s.Duration.Round(time.Millisecond))
	fmt.Printf("Total:         %d funds\n", s.Total)
	fmt.Printf("Success:       %d\n", s.Success)
	fmt.Printf("Failed:        %d (timeouts: %d)\n", s.Failed, s.Timeouts)
	fmt.Printf("Skipped:       %d\n", s.Skipped)
	if s.Canceled {
		fmt.Println("⚠️  Batch interrupted before all funds were analyzed")
	}
	kinds := make([]string, 0, len(s.ByKind))
	for kind := range s.ByKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("  • %-20s %d\n", kind, s.ByKind[types.ErrorKind(kind)])
	}
	fmt.Println()

	fmt.Println("───────────────────────────────────────────────────────────────")
	for _, r := range results {
		switch r.Status {
		case types.StatusSuccess:
			rec := r.Recommendation
			fmt.Printf("✅ %-10s %-11s score %5.1f  conf %3.0f%%  risk %-6s  pos %-7s entry %.4f  target %.4f  stop %.4f\n",
				r.FundID, rec.SignalType, rec.Score, rec.Confidence*100, rec.RiskLevel,
				rec.PositionSize.Label, rec.EntryPrice, rec.TargetPrice, rec.StopLoss)
		case types.StatusFailed:
			fmt.Printf("❌ %-10s %-18s %s\n", r.FundID, r.ErrorKind, r.Error)
		default:
			fmt.Printf("⏭  %-10s skipped\n", r.FundID)
		}
	}

	if len(s.TopPicks) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("───────────────────────────────────────────────────────────────")
	fmt.Println("Top picks:")
	for i, p := range s.TopPicks {
		fmt.Printf("  %d. %-10s %-11s score %5.1f  conf %3.0f%%\n", i+1, p.FundID, p.SignalType, p.Score, p.Confidence*100)
	}
}

func saveJSON(path string, results []types.AnalysisResult, summary types.BatchSummary) error {
	b, err := json.MarshalIndent(struct {
		Summary types.BatchSummary     `json:"summary"`
		Results []types.AnalysisResult `json:"results"`
	}{summary, results}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
