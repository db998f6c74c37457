package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fund-advisor/internal/logger"
	"fund-advisor/internal/types"
)

// Format specifies the output format for fund reports
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// Metric is one indicator row of a report table.
type Metric struct {
	Score     float64         `json:"score"`
	RawValue  float64         `json:"raw_value"`
	Direction types.Direction `json:"direction"`
}

// Payload is the record a report template renders, field for field.
type Payload struct {
	FundName              string            `json:"fund_name"`
	FundCode              string            `json:"fund_code"`
	FundType              types.FundType    `json:"fund_type"`
	SignalType            types.SignalType  `json:"signal_type"`
	Confidence            float64           `json:"confidence"`
	RiskLevel             types.RiskLevel   `json:"risk_level"`
	PositionSize          string            `json:"position_size"`
	ExpectedHoldingPeriod int               `json:"expected_holding_period"`
	EntryPrice            float64           `json:"entry_price"`
	TargetPrice           float64           `json:"target_price"`
	StopLoss              float64           `json:"stop_loss"`
	Score                 float64           `json:"score"`
	Reasoning             []string          `json:"reasoning"`
	ExecutiveSummary      string            `json:"executive_summary"`
	TechnicalMetrics      map[string]Metric `json:"technical_metrics"`
	FundamentalMetrics    map[string]Metric `json:"fundamental_metrics"`
	SentimentMetrics      map[string]Metric `json:"sentiment_metrics"`
	MarketMetrics         map[string]Metric `json:"market_metrics"`
	CategoryScores        map[string]int    `json:"category_scores"`
	RunID                 string            `json:"run_id"`
	GeneratedAt           time.Time         `json:"generated_at"`
}

// Build assembles the payload for one successful analysis.
func Build(rec types.Recommendation, comp types.CompositeScore) Payload {
	p := Payload{
		FundName:              rec.FundName,
		FundCode:              rec.FundID,
		FundType:              rec.FundType,
		SignalType:            rec.SignalType,
		Confidence:            rec.Confidence,
		RiskLevel:             rec.RiskLevel,
		PositionSize:          rec.PositionSize.Label,
		ExpectedHoldingPeriod: rec.ExpectedHoldingPeriod,
		EntryPrice:            rec.EntryPrice,
		TargetPrice:           rec.TargetPrice,
		StopLoss:              rec.StopLoss,
		Score:                 rec.Score,
		Reasoning:             append([]string(nil), rec.Reasoning...),
		TechnicalMetrics:      metrics(comp, types.CategoryTechnical),
		FundamentalMetrics:    metrics(comp, types.CategoryFundamental),
		SentimentMetrics:      metrics(comp, types.CategorySentiment),
		MarketMetrics:         metrics(comp, types.CategoryMarket),
		CategoryScores:        make(map[string]int, len(comp.Breakdown)),
		RunID:                 rec.RunID,
		GeneratedAt:           rec.CreatedAt,
	}
	for cat, cs := range comp.Breakdown {
		p.CategoryScores[string(cat)] = cs.Display()
	}
	p.ExecutiveSummary = ExecutiveSummary(rec, comp)
	return p
}

func metrics(comp types.CompositeScore, cat types.Category) map[string]Metric {
	out := make(map[string]Metric)
	cs, ok := comp.Breakdown[cat]
	if !ok {
		return out
	}
	for name, m := range cs.Metrics {
		out[name] = Metric{Score: m.Score, RawValue: m.RawValue, Direction: m.Direction}
	}
	return out
}

// ExecutiveSummary is a short plain-text digest of a recommendation.
func ExecutiveSummary(rec types.Recommendation, comp types.CompositeScore) string {
	var sb strings.Builder
	name := rec.FundName
	if name == "" {
		name = rec.FundID
	}
	fmt.Fprintf(&sb, "%s (%s): %s with %.0f%% confidence, composite score %.1f/100.",
		name, rec.FundID, rec.SignalType, rec.Confidence*100, rec.Score)

	if tech, ok := comp.Breakdown[types.CategoryTechnical]; ok {
		fmt.Fprintf(&sb, " Technical score %d/100, %s.", tech.Display(), lean(tech.Score))
	}
	fmt.Fprintf(&sb, " Risk %s, suggested position %s", rec.RiskLevel, rec.PositionSize.Label)
	if rec.ExpectedHoldingPeriod > 0 {
		fmt.Fprintf(&sb, ", expected holding about %d days", rec.ExpectedHoldingPeriod)
	}
	sb.WriteString(".")
	if rec.EntryPrice > 0 {
		fmt.Fprintf(&sb, " Entry %.4f, target %.4f, stop %.4f.", rec.EntryPrice, rec.TargetPrice, rec.StopLoss)
	}
	if len(rec.Reasoning) > 0 {
		n := min(3, len(rec.Reasoning))
		fmt.Fprintf(&sb, " Main drivers: %s.", strings.Join(rec.Reasoning[:n], "; "))
	}
	return sb.String()
}

func lean(score float64) string {
	switch {
	case score > 60:
		return "leaning strong"
	case score < 40:
		return "leaning weak"
	}
	return "neutral"
}

// Renderer writes one report file per payload into a directory.
type Renderer struct {
	outputDir string
	format    Format
}

// NewRenderer creates a renderer for the given format.
func NewRenderer(outputDir string, format Format) (*Renderer, error) {
	switch format {
	case FormatJSON, FormatMarkdown:
	default:
		return nil, types.Invalid("unsupported report format %q", format)
	}
	return &Renderer{outputDir: outputDir, format: format}, nil
}

func (r *Renderer) Render(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	op := logger.StartOperation(ctx, "report.Render", "fund_code", p.FundCode, "format", string(r.format))
	path, err := r.Save(p)
	if err != nil {
		op.EndWithError(err)
		return err
	}
	op.End("path", path)
	return nil
}

// Save writes the report and returns its path.
func (r *Renderer) Save(p Payload) (string, error) {
	content, err := Generate(p, r.format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", err
	}

	at := p.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	name := fmt.Sprintf("fund_%s_%s.%s", p.FundCode, at.UTC().Format("20060102"), r.format)
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Generate renders p in the given format.
func Generate(p Payload, format Format) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	case FormatMarkdown:
		return markdown(p), nil
	}
	return "", types.Invalid("unsupported report format %q", format)
}

func markdown(p Payload) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s Investment Analysis\n\n", p.FundName)
	fmt.Fprintf(&sb, "**Fund code**: %s  \n", p.FundCode)
	if !p.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "**Generated**: %s  \n", p.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	sb.WriteString("\n## Summary\n\n")
	sb.WriteString(p.ExecutiveSummary + "\n")

	sb.WriteString("\n## Recommendation\n\n")
	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Signal | %s |\n", p.SignalType)
	fmt.Fprintf(&sb, "| Confidence | %.1f%% |\n", p.Confidence*100)
	fmt.Fprintf(&sb, "| Score | %.1f |\n", p.Score)
	fmt.Fprintf(&sb, "| Risk level | %s |\n", p.RiskLevel)
	fmt.Fprintf(&sb, "| Position size | %s |\n", p.PositionSize)
	fmt.Fprintf(&sb, "| Expected holding period | %d days |\n", p.ExpectedHoldingPeriod)
	fmt.Fprintf(&sb, "| Entry price | %.4f |\n", p.EntryPrice)
	fmt.Fprintf(&sb, "| Target price | %.4f |\n", p.TargetPrice)
	fmt.Fprintf(&sb, "| Stop loss | %.4f |\n", p.StopLoss)

	if len(p.Reasoning) > 0 {
		sb.WriteString("\n### Reasoning\n\n")
		for _, r := range p.Reasoning {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}

	section(&sb, "Technical", p.TechnicalMetrics)
	section(&sb, "Fundamental", p.FundamentalMetrics)
	section(&sb, "Sentiment", p.SentimentMetrics)
	section(&sb, "Market", p.MarketMetrics)

	sb.WriteString("\n---\n\nGenerated from quantitative indicators only. Not investment advice.\n")
	return sb.String()
}

func section(sb *strings.Builder, title string, ms map[string]Metric) {
	if len(ms) == 0 {
		return
	}
	names := make([]string, 0, len(ms))
	for name := range ms {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(sb, "\n## %s\n\n| Indicator | Raw | Score | Direction |\n|---|---|---|---|\n", title)
	for _, name := range names {
		m := ms[name]
		fmt.Fprintf(sb, "| %s | %.4g | %.1f | %s |\n", name, m.RawValue, m.Score, m.Direction)
	}
}
