package signal

import (
	"fmt"
	"math"
	"strings"

	"fund-advisor/internal/types"
)

// Engine turns one fund snapshot into a recommendation. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine bound to it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("signal config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Analyze scores the snapshot. previous is the fund's last composite score,
// NaN when there is none. The returned recommendation carries no id, run id
// or timestamp; the caller stamps those.
func (e *Engine) Analyze(snap types.FundSnapshot, previous float64) (types.Recommendation, types.CompositeScore, error) {
	if strings.TrimSpace(snap.FundID) == "" {
		return types.Recommendation{}, types.CompositeScore{}, types.Invalid("fund id is empty")
	}

	scores, _, err := NormalizeAll(snap.Samples)
	if err != nil {
		return types.Recommendation{}, types.CompositeScore{}, fmt.Errorf("normalize %s: %w", snap.FundID, err)
	}

	ft := snap.FundType
	if ft == "" {
		ft = DetectFundType(snap.FundName)
	}

	categories := AggregateAll(scores, e.cfg.IndicatorWeights)
	composite, err := Fuse(snap.FundID, categories, e.cfg.WeightsFor(ft))
	if err != nil {
		return types.Recommendation{}, composite, fmt.Errorf("fuse %s: %w", snap.FundID, err)
	}

	tier := Classify(composite.Score, e.cfg.Thresholds)
	confidence := Confidence(composite, tier, e.cfg.Thresholds, previous)

	risk := AssessRisk(RiskInputs{
		AnnualVolatility: snap.Volatility,
		MaxDrawdown:      rawValue(scores, IndicatorMaxDrawdown),
		FearGreed:        rawValue(scores, IndicatorFearGreed),
	})
	holding := HoldingPeriod(tier, ft)

	target, stop, err := PriceTargets(snap.NAV, HorizonVolatility(snap.Volatility, holding), tier, risk)
	if err != nil {
		return types.Recommendation{}, composite, fmt.Errorf("price targets %s: %w", snap.FundID, err)
	}

	rec := types.Recommendation{
		FundID:                snap.FundID,
		FundName:              snap.FundName,
		FundType:              ft,
		SignalType:            tier,
		Score:                 composite.Score,
		Confidence:            confidence,
		RiskLevel:             risk,
		PositionSize:          SuggestPosition(tier, risk, composite.Score),
		EntryPrice:            snap.NAV,
		TargetPrice:           target,
		StopLoss:              stop,
		ExpectedHoldingPeriod: holding,
		Reasoning:             Reasoning(composite),
	}
	return rec, composite, nil
}

func rawValue(scores []types.NormalizedScore, name string) float64 {
	for _, s := range scores {
		if s.Indicator == name {
			return s.RawValue
		}
	}
	return math.NaN()
}
