package types

import (
	"math"
	"time"
)

// Category groups indicators for aggregation.
type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryFundamental Category = "fundamental"
	CategorySentiment   Category = "sentiment"
	CategoryMarket      Category = "market"
)

// Categories lists every category in fusion order.
var Categories = []Category{CategoryTechnical, CategoryFundamental, CategorySentiment, CategoryMarket}

func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryFundamental, CategorySentiment, CategoryMarket:
		return true
	}
	return false
}

// Direction is the bias an indicator expresses.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// SignalType is the discrete recommendation tier.
type SignalType string

const (
	StrongBuy  SignalType = "STRONG_BUY"
	Buy        SignalType = "BUY"
	Hold       SignalType = "HOLD"
	Sell       SignalType = "SELL"
	StrongSell SignalType = "STRONG_SELL"
)

// Rank orders tiers from most bearish (0) to most bullish (4).
func (s SignalType) Rank() int {
	switch s {
	case StrongSell:
		return 0
	case Sell:
		return 1
	case Hold:
		return 2
	case Buy:
		return 3
	case StrongBuy:
		return 4
	}
	return -1
}

func (s SignalType) IsBuy() bool  { return s == Buy || s == StrongBuy }
func (s SignalType) IsSell() bool { return s == Sell || s == StrongSell }

// RiskLevel classifies how volatile the fund's environment is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// FundType drives weight profiles and holding periods.
type FundType string

const (
	FundEquity      FundType = "equity"
	FundBond        FundType = "bond"
	FundHybrid      FundType = "hybrid"
	FundIndex       FundType = "index"
	FundMoneyMarket FundType = "money_market"
)

// IndicatorSample is one raw indicator reading for a fund.
//
// Reference carries an optional companion value whose meaning depends on the
// indicator (nil when absent):
//
//	macd            rolling volatility of the histogram
//	rsi             RSI slope over the lookback window
//	kdj             K minus D spread
//	sharpe          peer category median Sharpe ratio
//	news_sentiment  number of articles behind the polarity
type IndicatorSample struct {
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	RawValue  float64   `json:"raw_value"`
	Unit      string    `json:"unit,omitempty"`
	Reference *float64  `json:"reference,omitempty"`
	AsOf      time.Time `json:"as_of"`
}

// NewSample builds a sample without a reference value.
func NewSample(name string, cat Category, raw float64, unit string) IndicatorSample {
	return IndicatorSample{Name: name, Category: cat, RawValue: raw, Unit: unit}
}

// WithReference returns a copy carrying ref as companion value.
func (s IndicatorSample) WithReference(ref float64) IndicatorSample {
	s.Reference = &ref
	return s
}

// Ref returns the companion value, or NaN when absent.
func (s IndicatorSample) Ref() float64 {
	if s.Reference == nil {
		return math.NaN()
	}
	return *s.Reference
}

// NormalizedScore is a sample mapped onto the common 0-100 scale.
type NormalizedScore struct {
	Indicator string    `json:"indicator"`
	Category  Category  `json:"category"`
	Score     float64   `json:"score"`
	Direction Direction `json:"direction"`
	RawValue  float64   `json:"raw_value"`
	Weight    float64   `json:"weight"`
	Clause    string    `json:"clause,omitempty"`
}

// CategoryScore is the weighted mean of one category's normalized scores.
// Score keeps full precision; Display rounds for presentation.
type CategoryScore struct {
	Category     Category                   `json:"category"`
	Score        float64                    `json:"score"`
	Contributing int                        `json:"contributing_count"`
	Metrics      map[string]NormalizedScore `json:"metrics"`
}

func (c CategoryScore) Display() int {
	return int(math.Round(c.Score))
}

// CompositeScore is the fused view of all present categories for one fund.
type CompositeScore struct {
	FundID    string                     `json:"fund_id"`
	Score     float64                    `json:"score"`
	Breakdown map[Category]CategoryScore `json:"category_breakdown"`
	Weights   map[Category]float64       `json:"effective_weights"`
}

// PositionAction is what the position size range asks the holder to do.
type PositionAction string

const (
	PositionBuild  PositionAction = "BUILD"
	PositionHold   PositionAction = "HOLD"
	PositionReduce PositionAction = "REDUCE"
	PositionExit   PositionAction = "EXIT"
)

// PositionSize is a suggested allocation (BUILD) or reduction (REDUCE) range
// in percent of the portfolio or holding.
type PositionSize struct {
	Action PositionAction `json:"action"`
	MinPct float64        `json:"min_pct"`
	MaxPct float64        `json:"max_pct"`
	Label  string         `json:"label"`
}

// Recommendation is the published outcome of one successful analysis.
type Recommendation struct {
	ID                    string       `json:"id"`
	RunID                 string       `json:"run_id"`
	FundID                string       `json:"fund_id"`
	FundName              string       `json:"fund_name"`
	FundType              FundType     `json:"fund_type"`
	SignalType            SignalType   `json:"signal_type"`
	Score                 float64      `json:"score"`
	Confidence            float64      `json:"confidence"`
	RiskLevel             RiskLevel    `json:"risk_level"`
	PositionSize          PositionSize `json:"position_size"`
	EntryPrice            float64      `json:"entry_price"`
	TargetPrice           float64      `json:"target_price"`
	StopLoss              float64      `json:"stop_loss"`
	ExpectedHoldingPeriod int          `json:"expected_holding_period"`
	Reasoning             []string     `json:"reasoning"`
	CreatedAt             time.Time    `json:"created_at"`
}

// FundSnapshot is what a data provider returns for one fund.
type FundSnapshot struct {
	FundID     string            `json:"fund_id"`
	FundName   string            `json:"fund_name"`
	FundType   FundType          `json:"fund_type,omitempty"`
	NAV        float64           `json:"nav"`
	Volatility float64           `json:"volatility"`
	Samples    []IndicatorSample `json:"samples"`
	AsOf       time.Time         `json:"as_of"`
}

// Status is the outcome of one fund in a batch.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// AnalysisResult is the orchestrator's record for one fund in one run.
type AnalysisResult struct {
	FundID         string          `json:"fund_id"`
	Status         Status          `json:"status"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Composite      *CompositeScore `json:"composite,omitempty"`
	ErrorKind      ErrorKind       `json:"error_kind,omitempty"`
	Error          string          `json:"error,omitempty"`
	Attempts       int             `json:"attempts"`
	Duration       time.Duration   `json:"duration"`
}

// Pick is one entry in the summary's ranked list.
type Pick struct {
	FundID         string     `json:"fund_id"`
	SignalType     SignalType `json:"signal_type"`
	Score          float64    `json:"score"`
	Confidence     float64    `json:"confidence"`
	Attractiveness float64    `json:"attractiveness"`
}

// BatchSummary is the operational view of a finished batch.
type BatchSummary struct {
	RunID     string            `json:"run_id"`
	Total     int               `json:"total"`
	Success   int               `json:"success"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Timeouts  int               `json:"timeouts"`
	ByKind    map[ErrorKind]int `json:"failures_by_kind"`
	Canceled  bool              `json:"canceled"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	TopPicks  []Pick            `json:"top_picks"`
}
