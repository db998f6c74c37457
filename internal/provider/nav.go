package provider

import (
	"math"
	"time"

	"fund-advisor/internal/signal"
	"fund-advisor/internal/ta"
	"fund-advisor/internal/types"
)

const (
	riskFreeRate = 0.02
	rsiPeriod    = 14
	rsiLookback  = 5
	kdjPeriod    = 9
	bbWindow     = 20
	bbStdDev     = 2.0
	trendWindow  = 20
	varLevel     = 0.95
)

var maPeriods = []int{5, 10, 20, 60}

// NAVHistory is the raw per-fund input: a daily NAV series plus the optional
// sentiment and market readings that do not derive from prices.
type NAVHistory struct {
	FundID     string         `json:"fund_id"`
	FundName   string         `json:"fund_name"`
	FundType   types.FundType `json:"fund_type,omitempty"`
	AsOf       time.Time      `json:"as_of"`
	NAV        []float64      `json:"nav"`
	Benchmark  []float64      `json:"benchmark,omitempty"`
	PeerSharpe *float64       `json:"peer_sharpe,omitempty"`
	Sentiment  *Sentiment     `json:"sentiment,omitempty"`
	Market     *Market        `json:"market,omitempty"`
}

// Sentiment carries either a precomputed polarity in [-1,1] with its article
// count, or the scored headlines it is averaged from.
type Sentiment struct {
	Polarity           float64    `json:"polarity"`
	Articles           int        `json:"articles"`
	Headlines          []Headline `json:"headlines,omitempty"`
	InstitutionalRatio *float64   `json:"institutional_ratio,omitempty"`
}

// Headline is one article scored by an upstream sentiment analyzer.
type Headline struct {
	Title string  `json:"title"`
	URL   string  `json:"url,omitempty"`
	Score float64 `json:"score"`
}

// polarity averages the headline scores when there are any, clamping each
// to [-1,1] and skipping non-finite ones.
func (s Sentiment) polarity() (float64, int) {
	if len(s.Headlines) == 0 {
		return s.Polarity, s.Articles
	}
	total, n := 0.0, 0
	for _, h := range s.Headlines {
		if math.IsNaN(h.Score) || math.IsInf(h.Score, 0) {
			continue
		}
		total += math.Max(-1, math.Min(1, h.Score))
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return total / float64(n), n
}

type Market struct {
	FearGreed    *float64 `json:"fear_greed,omitempty"`
	RateChangeBP *float64 `json:"rate_change_bp,omitempty"`
}

// Snapshot derives indicator samples from the history. Indicators the series
// is too short for are left out rather than sent as missing.
func (h NAVHistory) Snapshot() (types.FundSnapshot, error) {
	if len(h.NAV) == 0 {
		return types.FundSnapshot{}, types.Invalid("fund %s has no NAV history", h.FundID)
	}
	for _, v := range h.NAV {
		if !(v > 0) || math.IsInf(v, 0) {
			return types.FundSnapshot{}, types.Invalid("fund %s has a non-positive NAV %v", h.FundID, v)
		}
	}

	b := sampleBuilder{asOf: h.AsOf}
	nav := h.NAV
	returns := ta.Returns(nav)

	b.add(signal.IndicatorMAAlignment, types.CategoryTechnical, ta.MAAlignment(nav, maPeriods...), "")
	hist, histVol := ta.MACD(nav, 12, 26, 9)
	b.addRef(signal.IndicatorMACD, types.CategoryTechnical, hist, histVol, "")
	b.addRef(signal.IndicatorRSI, types.CategoryTechnical, ta.RSI(nav, rsiPeriod), ta.RSISlope(nav, rsiPeriod, rsiLookback), "")
	j, spread := ta.KDJ(nav, kdjPeriod)
	b.addRef(signal.IndicatorKDJ, types.CategoryTechnical, j, spread, "")
	b.add(signal.IndicatorBollinger, types.CategoryTechnical, ta.PercentB(nav, bbWindow, bbStdDev), "%b")

	if len(h.Benchmark) > 1 {
		bench := ta.Returns(h.Benchmark)
		b.add(signal.IndicatorBeta, types.CategoryFundamental, ta.Beta(returns, bench), "")
		b.add(signal.IndicatorAlpha, types.CategoryFundamental, ta.Alpha(returns, bench, riskFreeRate), "%")
		if len(h.Benchmark) > trendWindow {
			last := h.Benchmark[len(h.Benchmark)-1]
			prev := h.Benchmark[len(h.Benchmark)-1-trendWindow]
			if prev > 0 {
				b.add(signal.IndicatorMarketTrend, types.CategoryMarket, (last/prev-1)*100, "%")
			}
		}
	}
	sharpe := ta.Sharpe(returns, riskFreeRate)
	if h.PeerSharpe != nil {
		b.addRef(signal.IndicatorSharpe, types.CategoryFundamental, sharpe, *h.PeerSharpe, "")
	} else {
		b.add(signal.IndicatorSharpe, types.CategoryFundamental, sharpe, "")
	}
	b.add(signal.IndicatorMaxDrawdown, types.CategoryFundamental, ta.MaxDrawdown(nav), "%")
	b.add(signal.IndicatorVaR, types.CategoryFundamental, ta.HistoricalVaR(returns, varLevel), "%")
	if len(nav) > ta.TradingDays/4 {
		b.add(signal.IndicatorAnnualReturn, types.CategoryFundamental, ta.AnnualizedReturn(nav), "%")
	}

	if s := h.Sentiment; s != nil {
		polarity, articles := s.polarity()
		b.addRef(signal.IndicatorNewsSentiment, types.CategorySentiment, polarity, float64(articles), "polarity")
		if s.InstitutionalRatio != nil {
			b.add(signal.IndicatorInstitutional, types.CategorySentiment, *s.InstitutionalRatio, "ratio")
		}
	}
	if m := h.Market; m != nil {
		if m.FearGreed != nil {
			b.add(signal.IndicatorFearGreed, types.CategoryMarket, *m.FearGreed, "")
		}
		if m.RateChangeBP != nil {
			b.add(signal.IndicatorRateTrend, types.CategoryMarket, *m.RateChangeBP, "bp")
		}
	}

	vol := ta.AnnualizedVolatility(returns)
	if math.IsNaN(vol) {
		vol = 0
	}
	return types.FundSnapshot{
		FundID:     h.FundID,
		FundName:   h.FundName,
		FundType:   h.FundType,
		NAV:        nav[len(nav)-1],
		Volatility: vol,
		Samples:    b.samples,
		AsOf:       h.AsOf,
	}, nil
}

type sampleBuilder struct {
	asOf    time.Time
	samples []types.IndicatorSample
}

func (b *sampleBuilder) add(name string, cat types.Category, raw float64, unit string) {
	if math.IsNaN(raw) {
		return
	}
	s := types.NewSample(name, cat, raw, unit)
	s.AsOf = b.asOf
	b.samples = append(b.samples, s)
}

func (b *sampleBuilder) addRef(name string, cat types.Category, raw, ref float64, unit string) {
	if math.IsNaN(raw) {
		return
	}
	s := types.NewSample(name, cat, raw, unit)
	if !math.IsNaN(ref) && !math.IsInf(ref, 0) {
		s = s.WithReference(ref)
	}
	s.AsOf = b.asOf
	b.samples = append(b.samples, s)
}
