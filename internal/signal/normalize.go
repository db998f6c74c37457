package signal

import (
	"fmt"
	"math"
	"sort"

	"fund-advisor/internal/types"
)

// Canonical indicator names. The report template keys its metric tables by
// these exact strings.
const (
	IndicatorMAAlignment   = "ma_alignment"
	IndicatorMACD          = "macd"
	IndicatorRSI           = "rsi"
	IndicatorKDJ           = "kdj"
	IndicatorBollinger     = "bollinger"
	IndicatorBeta          = "beta"
	IndicatorAlpha         = "alpha"
	IndicatorVaR           = "var"
	IndicatorSharpe        = "sharpe"
	IndicatorMaxDrawdown   = "max_drawdown"
	IndicatorAnnualReturn  = "annual_return"
	IndicatorNewsSentiment = "news_sentiment"
	IndicatorInstitutional = "institutional_ratio"
	IndicatorFearGreed     = "fear_greed"
	IndicatorMarketTrend   = "market_trend"
	IndicatorRateTrend     = "rate_trend"
)

const neutralScore = 50.0

// mapping scores one indicator. score must return a value on the 0-100 scale
// before clamping; clause describes the reading in one factual phrase.
type mapping struct {
	category  types.Category
	score     func(raw, ref float64) float64
	direction func(raw, score float64) types.Direction
	clause    func(raw, ref float64, dir types.Direction) string
}

// mappings is resolved once at init; lookups never fall back to dynamic
// name matching.
var mappings map[string]mapping

func init() {
	mappings = map[string]mapping{
		IndicatorMAAlignment: {
			category: types.CategoryTechnical,
			score: func(raw, _ float64) float64 {
				return neutralScore + 50*clampRange(raw, -1, 1)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				switch dir {
				case types.Bullish:
					return "Moving averages in bullish alignment"
				case types.Bearish:
					return "Moving averages in bearish alignment"
				}
				return "Moving averages show no clear alignment"
			},
		},
		IndicatorMACD: {
			category: types.CategoryTechnical,
			score: func(raw, ref float64) float64 {
				if !(ref > 0) || math.IsInf(ref, 0) {
					ref = 1
				}
				return neutralScore + 50*math.Tanh(raw/ref)
			},
			direction: func(raw, _ float64) types.Direction {
				switch {
				case raw > 0:
					return types.Bullish
				case raw < 0:
					return types.Bearish
				}
				return types.Neutral
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				switch dir {
				case types.Bullish:
					return "MACD histogram positive, momentum rising"
				case types.Bearish:
					return "MACD histogram negative, momentum fading"
				}
				return "MACD histogram flat"
			},
		},
		IndicatorRSI: {
			category: types.CategoryTechnical,
			score:    scoreRSI,
			clause: func(raw, ref float64, dir types.Direction) string {
				switch {
				case raw <= 30:
					return "RSI indicates oversold condition"
				case raw >= 70 && dir == types.Bullish:
					return "RSI strong with upward momentum"
				case raw >= 70:
					return "RSI indicates overbought condition"
				case dir == types.Bullish:
					return "RSI recovering from oversold territory"
				case dir == types.Bearish:
					return "RSI drifting toward overbought without momentum"
				}
				return "RSI in neutral range"
			},
		},
		IndicatorKDJ: {
			category: types.CategoryTechnical,
			score: func(raw, ref float64) float64 {
				s := 100 / (1 + math.Exp((raw-50)/15))
				if !math.IsNaN(ref) {
					s += 10 * math.Tanh(ref/10)
				}
				return s
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				switch {
				case raw < 20:
					return "KDJ indicates oversold condition"
				case raw > 80:
					return "KDJ indicates overbought condition"
				case dir == types.Bullish:
					return "KDJ turning up"
				case dir == types.Bearish:
					return "KDJ turning down"
				}
				return "KDJ neutral"
			},
		},
		IndicatorBollinger: {
			category: types.CategoryTechnical,
			score: func(raw, _ float64) float64 {
				return 90 - 80*raw
			},
			clause: func(raw, _ float64, _ types.Direction) string {
				switch {
				case raw <= 0.2:
					return "NAV near lower Bollinger band"
				case raw >= 1:
					return "NAV broke above upper Bollinger band"
				case raw >= 0.8:
					return "NAV near upper Bollinger band"
				}
				return "NAV inside Bollinger bands"
			},
		},
		IndicatorBeta: {
			category: types.CategoryFundamental,
			score: func(raw, _ float64) float64 {
				return math.Min(85, 100-40*raw)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				if dir == types.Bearish {
					return fmt.Sprintf("High beta %.2f amplifies market swings", raw)
				}
				return fmt.Sprintf("Beta %.2f keeps market sensitivity contained", raw)
			},
		},
		IndicatorAlpha: {
			category: types.CategoryFundamental,
			score: func(raw, _ float64) float64 {
				return neutralScore + 50*math.Tanh(raw/10)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				if raw >= 0 {
					return fmt.Sprintf("Positive alpha %.1f%% over benchmark", raw)
				}
				return fmt.Sprintf("Negative alpha %.1f%% versus benchmark", raw)
			},
		},
		IndicatorVaR: {
			category: types.CategoryFundamental,
			score: func(raw, _ float64) float64 {
				return 100 * math.Exp(-math.Abs(raw)/4)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				if dir == types.Bearish {
					return fmt.Sprintf("Value at risk elevated at %.2f%%", math.Abs(raw))
				}
				return fmt.Sprintf("Value at risk contained at %.2f%%", math.Abs(raw))
			},
		},
		IndicatorSharpe: {
			category: types.CategoryFundamental,
			score: func(raw, ref float64) float64 {
				if math.IsNaN(ref) {
					ref = 0
				}
				return neutralScore + 50*math.Tanh((raw-ref)/1.5)
			},
			clause: func(raw, ref float64, _ types.Direction) string {
				if math.IsNaN(ref) {
					if raw >= 1 {
						return fmt.Sprintf("Sharpe ratio %.2f shows good risk-adjusted return", raw)
					}
					return fmt.Sprintf("Sharpe ratio %.2f shows weak risk-adjusted return", raw)
				}
				if raw >= ref {
					return "Sharpe ratio above category median"
				}
				return "Sharpe ratio below category median"
			},
		},
		IndicatorMaxDrawdown: {
			category: types.CategoryFundamental,
			score: func(raw, _ float64) float64 {
				return 100 - 25*math.Log1p(math.Abs(raw)/2)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				if dir == types.Bearish {
					return fmt.Sprintf("Deep max drawdown of %.1f%%", math.Abs(raw))
				}
				return fmt.Sprintf("Max drawdown limited to %.1f%%", math.Abs(raw))
			},
		},
		IndicatorAnnualReturn: {
			category: types.CategoryFundamental,
			score: func(raw, _ float64) float64 {
				return neutralScore + 50*math.Tanh(raw/15)
			},
			clause: func(raw, _ float64, _ types.Direction) string {
				return fmt.Sprintf("Annualized return %.1f%%", raw)
			},
		},
		IndicatorNewsSentiment: {
			category: types.CategorySentiment,
			score: func(raw, ref float64) float64 {
				return neutralScore + 50*clampRange(raw, -1, 1)*articleConfidence(ref)
			},
			clause: func(raw, ref float64, dir types.Direction) string {
				switch dir {
				case types.Bullish:
					return "News sentiment positive"
				case types.Bearish:
					return "News sentiment negative"
				}
				if articleConfidence(ref) < 0.5 && math.Abs(raw) > 0.2 {
					return "News sentiment too sparse to act on"
				}
				return "News sentiment neutral"
			},
		},
		IndicatorInstitutional: {
			category: types.CategorySentiment,
			score: func(raw, _ float64) float64 {
				return 100 * raw
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				return fmt.Sprintf("%.0f%% of institutions bullish", 100*clampRange(raw, 0, 1))
			},
		},
		IndicatorFearGreed: {
			category: types.CategoryMarket,
			score: func(raw, _ float64) float64 {
				return 100 - raw
			},
			clause: func(raw, _ float64, _ types.Direction) string {
				switch {
				case raw <= 25:
					return "Market in extreme fear, contrarian entry"
				case raw >= 75:
					return "Market in extreme greed, elevated pullback risk"
				}
				return "Market mood balanced"
			},
		},
		IndicatorMarketTrend: {
			category: types.CategoryMarket,
			score: func(raw, _ float64) float64 {
				return neutralScore + 50*math.Tanh(raw/5)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				switch dir {
				case types.Bullish:
					return "Benchmark trending up"
				case types.Bearish:
					return "Benchmark trending down"
				}
				return "Benchmark moving sideways"
			},
		},
		IndicatorRateTrend: {
			category: types.CategoryMarket,
			score: func(raw, _ float64) float64 {
				return neutralScore - 50*math.Tanh(raw/50)
			},
			clause: func(raw, _ float64, dir types.Direction) string {
				switch dir {
				case types.Bullish:
					return "Falling interest rates support valuations"
				case types.Bearish:
					return "Rising interest rates weigh on valuations"
				}
				return "Interest rates stable"
			},
		},
	}
}

// Indicators returns the known indicator names of a category.
func Indicators(cat types.Category) []string {
	out := make([]string, 0, 6)
	for name, m := range mappings {
		if m.category == cat {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CategoryOf reports which category a known indicator belongs to.
func CategoryOf(name string) (types.Category, bool) {
	m, ok := mappings[name]
	return m.category, ok
}

// Normalize maps one sample onto the 0-100 scale. A NaN raw value yields
// ErrMissingIndicator; the caller drops the sample.
func Normalize(sample types.IndicatorSample) (types.NormalizedScore, error) {
	m, ok := mappings[sample.Name]
	if !ok {
		return types.NormalizedScore{}, types.Invalid("unknown indicator %q", sample.Name)
	}
	if sample.Category != "" && sample.Category != m.category {
		return types.NormalizedScore{}, types.Invalid("indicator %q belongs to %s, got %s", sample.Name, m.category, sample.Category)
	}
	raw := sample.RawValue
	if math.IsNaN(raw) {
		return types.NormalizedScore{}, fmt.Errorf("%s: %w", sample.Name, types.ErrMissingIndicator)
	}
	raw = finite(raw)
	ref := sample.Ref()
	if !math.IsNaN(ref) {
		ref = finite(ref)
	}

	score := clampScore(m.score(raw, ref))

	var dir types.Direction
	if m.direction != nil {
		dir = m.direction(raw, score)
	} else {
		dir = directionOf(score)
	}

	return types.NormalizedScore{
		Indicator: sample.Name,
		Category:  m.category,
		Score:     score,
		Direction: dir,
		RawValue:  raw,
		Clause:    m.clause(raw, ref, dir),
	}, nil
}

// scoreRSI rewards oversold readings near 30 as reversal opportunities and
// readings near 70 only while the slope is still rising. Extreme overbought
// without momentum scores lowest.
func scoreRSI(raw, slope float64) float64 {
	rsi := clampRange(raw, 0, 100)
	var base float64
	switch {
	case rsi <= 30:
		base = 85 - (30-rsi)*0.5
	case rsi <= 50:
		base = 85 - (rsi-30)*1.75
	case rsi <= 70:
		base = 50 - (rsi-50)*0.5
	default:
		base = 40 - (rsi-70)*1.2
	}
	if math.IsNaN(slope) || slope <= 0 {
		return base
	}
	momentum := math.Min(slope/5, 1)
	proximity := math.Exp(-math.Pow((rsi-70)/10, 2))
	return base + 45*momentum*proximity
}

// articleConfidence damps sentiment toward neutral when few articles back it.
func articleConfidence(count float64) float64 {
	if math.IsNaN(count) || count <= 0 {
		return 0
	}
	return 1 - math.Exp(-count/5)
}

func directionOf(score float64) types.Direction {
	switch {
	case score >= 55:
		return types.Bullish
	case score <= 45:
		return types.Bearish
	}
	return types.Neutral
}

// clampScore bounds s to [0,100]; non-finite intermediates collapse to neutral.
func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return neutralScore
	}
	return clampRange(s, 0, 100)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// finite replaces infinities with the largest representable magnitude so the
// value survives arithmetic and JSON encoding.
func finite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
