package signal

import (
	"fmt"
	"math"

	"fund-advisor/internal/types"
)

// WeightTolerance is how far a weight set may drift from summing to 1.0.
const WeightTolerance = 1e-6

// Weights maps a key to its relative weight.
type Weights[K comparable] map[K]float64

// Thresholds are the lower bounds of the buy-side and hold/sell tiers and
// must be strictly decreasing.
type Thresholds struct {
	StrongBuy float64 `yaml:"strong_buy" json:"strong_buy"`
	Buy       float64 `yaml:"buy" json:"buy"`
	Hold      float64 `yaml:"hold" json:"hold"`
	Sell      float64 `yaml:"sell" json:"sell"`
}

// Config holds every tunable of the scoring pipeline.
type Config struct {
	CategoryWeights  Weights[types.Category]
	IndicatorWeights map[types.Category]Weights[string]
	Thresholds       Thresholds
	// Profiles overrides CategoryWeights for specific fund types.
	Profiles map[types.FundType]Weights[types.Category]
}

// DefaultCategoryWeights is the canonical technical/fundamental/sentiment/market split.
func DefaultCategoryWeights() Weights[types.Category] {
	return Weights[types.Category]{
		types.CategoryTechnical:   0.35,
		types.CategoryFundamental: 0.30,
		types.CategorySentiment:   0.20,
		types.CategoryMarket:      0.15,
	}
}

// DefaultIndicatorWeights returns the within-category splits.
func DefaultIndicatorWeights() map[types.Category]Weights[string] {
	return map[types.Category]Weights[string]{
		types.CategoryTechnical: {
			IndicatorMAAlignment: 0.25,
			IndicatorMACD:        0.25,
			IndicatorRSI:         0.25,
			IndicatorBollinger:   0.25,
		},
		types.CategoryFundamental: {
			IndicatorBeta:         0.15,
			IndicatorAlpha:        0.20,
			IndicatorSharpe:       0.25,
			IndicatorMaxDrawdown:  0.20,
			IndicatorVaR:          0.10,
			IndicatorAnnualReturn: 0.10,
		},
		types.CategorySentiment: {
			IndicatorNewsSentiment: 0.70,
			IndicatorInstitutional: 0.30,
		},
		types.CategoryMarket: {
			IndicatorFearGreed:   0.40,
			IndicatorMarketTrend: 0.35,
			IndicatorRateTrend:   0.25,
		},
	}
}

func DefaultThresholds() Thresholds {
	return Thresholds{StrongBuy: 80, Buy: 60, Hold: 40, Sell: 20}
}

// DefaultConfig returns the canonical configuration without fund-type profiles.
func DefaultConfig() Config {
	return Config{
		CategoryWeights:  DefaultCategoryWeights(),
		IndicatorWeights: DefaultIndicatorWeights(),
		Thresholds:       DefaultThresholds(),
	}
}

// Validate checks weight sums and threshold ordering.
func (c Config) Validate() error {
	if err := validateWeights("category weights", c.CategoryWeights, true); err != nil {
		return err
	}
	for cat := range c.CategoryWeights {
		if !cat.Valid() {
			return types.Invalid("unknown category %q in category weights", cat)
		}
	}
	for cat, ws := range c.IndicatorWeights {
		if !cat.Valid() {
			return types.Invalid("unknown category %q in indicator weights", cat)
		}
		for name := range ws {
			owner, ok := CategoryOf(name)
			if !ok {
				return types.Invalid("unknown indicator %q in %s weights", name, cat)
			}
			if owner != cat {
				return types.Invalid("indicator %q belongs to %s, configured under %s", name, owner, cat)
			}
		}
		if err := validateWeights(fmt.Sprintf("%s indicator weights", cat), ws, false); err != nil {
			return err
		}
	}
	for ft, ws := range c.Profiles {
		if err := validateWeights(fmt.Sprintf("%s profile weights", ft), ws, true); err != nil {
			return err
		}
	}
	return c.Thresholds.Validate()
}

// Validate requires 100 >= strong_buy > buy > hold > sell >= 0.
func (t Thresholds) Validate() error {
	vals := []float64{t.StrongBuy, t.Buy, t.Hold, t.Sell}
	for _, v := range vals {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return types.Invalid("tier thresholds must lie in [0,100], got %v", vals)
		}
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] >= vals[i-1] {
			return types.Invalid("tier thresholds must be strictly decreasing, got %v", vals)
		}
	}
	return nil
}

// WeightsFor returns the category weights for a fund type.
func (c Config) WeightsFor(ft types.FundType) Weights[types.Category] {
	if ws, ok := c.Profiles[ft]; ok && len(ws) > 0 {
		return ws
	}
	return c.CategoryWeights
}

// validateWeights rejects negative or non-finite weights and, when
// requireUnit is set, sums that differ from 1.0 beyond WeightTolerance.
// Indicator weights may sum to anything positive since they are
// renormalized over present indicators anyway.
func validateWeights[K comparable](label string, ws Weights[K], requireUnit bool) error {
	if len(ws) == 0 {
		return types.Invalid("%s are empty", label)
	}
	sum := 0.0
	for k, w := range ws {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return types.Invalid("%s: weight for %v must be a non-negative number, got %v", label, k, w)
		}
		sum += w
	}
	if sum <= 0 {
		return types.Invalid("%s must have a positive total", label)
	}
	if requireUnit && math.Abs(sum-1) > WeightTolerance {
		return types.Invalid("%s must sum to 1.0, got %.6f", label, sum)
	}
	return nil
}

// Redistribute scales the weights of present keys so they sum to 1.0.
// Keys without a positive weight are left out. It returns nil when no
// present key carries weight.
func Redistribute[K comparable](ws Weights[K], present []K) Weights[K] {
	total := 0.0
	for _, k := range present {
		if w := ws[k]; w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return nil
	}
	out := make(Weights[K], len(present))
	for _, k := range present {
		if w := ws[k]; w > 0 {
			out[k] = w / total
		}
	}
	return out
}
