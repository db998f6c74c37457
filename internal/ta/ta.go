package ta

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"
)

// TradingDays is the annualization base for daily NAV series.
const TradingDays = 252

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// RSI is Wilder's relative strength index at the last close.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	return last(talib.Rsi(closes, period))
}

// RSISlope is the average per-day change of RSI over the last lookback days.
func RSISlope(closes []float64, period, lookback int) float64 {
	if lookback <= 0 || len(closes) < period+1+lookback {
		return math.NaN()
	}
	now := RSI(closes, period)
	then := RSI(closes[:len(closes)-lookback], period)
	return (now - then) / float64(lookback)
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// Bollinger returns the last SMA-based band triple with k population
// standard deviations.
func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	if len(closes) < n || n <= 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	upper, middle, lower := talib.BBands(closes, n, k, k, talib.SMA)
	return last(middle), last(upper), last(lower)
}

// PercentB locates the last close inside the Bollinger bands: 0 at the lower
// band, 1 at the upper. A zero-width band reads 0.5.
func PercentB(closes []float64, n int, k float64) float64 {
	_, up, low := Bollinger(closes, n, k)
	if math.IsNaN(up) {
		return math.NaN()
	}
	if up == low {
		return 0.5
	}
	return (closes[len(closes)-1] - low) / (up - low)
}

// MACD returns the last histogram value and the standard deviation of the
// histogram over up to two signal windows, used to scale it.
func MACD(closes []float64, fast, slow, signal int) (hist, histVol float64) {
	if len(closes) < slow+signal {
		return math.NaN(), math.NaN()
	}
	_, _, h := talib.Macd(closes, fast, slow, signal)
	// talib leaves the warm-up prefix at zero
	valid := h[slow+signal-2:]
	return last(valid), StdDev(valid, min(len(valid), signal*2))
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

// KDJ is the stochastic oscillator on a close-only series. It returns J and
// the K minus D spread.
func KDJ(closes []float64, n int) (j, spread float64) {
	if len(closes) < n || n <= 0 {
		return math.NaN(), math.NaN()
	}
	k, d := 50.0, 50.0
	for i := n - 1; i < len(closes); i++ {
		lo, hi := closes[i], closes[i]
		for _, c := range closes[i-n+1 : i+1] {
			lo = math.Min(lo, c)
			hi = math.Max(hi, c)
		}
		rsv := 50.0
		if hi > lo {
			rsv = (closes[i] - lo) / (hi - lo) * 100
		}
		k = 2.0/3*k + rsv/3
		d = 2.0/3*d + k/3
	}
	return 3*k - 2*d, k - d
}

// MAAlignment scores how orderly the moving averages stack, from -1 (every
// shorter average below the longer one) to 1 (every one above).
func MAAlignment(closes []float64, periods ...int) float64 {
	if len(periods) < 2 {
		return math.NaN()
	}
	mas := make([]float64, len(periods))
	for i, p := range periods {
		mas[i] = SMA(closes, p)
		if math.IsNaN(mas[i]) {
			return math.NaN()
		}
	}
	score, pairs := 0.0, 0
	for i := 0; i < len(mas); i++ {
		for j := i + 1; j < len(mas); j++ {
			switch {
			case mas[i] > mas[j]:
				score++
			case mas[i] < mas[j]:
				score--
			}
			pairs++
		}
	}
	return score / float64(pairs)
}

// Returns converts a price series into simple daily returns.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

func mean(vals []float64) float64 {
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

// AnnualizedVolatility is the sample stddev of daily returns scaled by
// sqrt(252), as a fraction.
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	m := mean(returns)
	s := 0.0
	for _, r := range returns {
		s += (r - m) * (r - m)
	}
	return math.Sqrt(s/float64(len(returns)-1)) * math.Sqrt(TradingDays)
}

// AnnualizedReturn compounds the series' total return to a yearly rate, in
// percent.
func AnnualizedReturn(closes []float64) float64 {
	if len(closes) < 2 || closes[0] <= 0 {
		return math.NaN()
	}
	total := closes[len(closes)-1] / closes[0]
	years := float64(len(closes)-1) / TradingDays
	return (math.Pow(total, 1/years) - 1) * 100
}

// MaxDrawdown is the deepest peak-to-trough decline, as a non-positive percent.
func MaxDrawdown(closes []float64) float64 {
	if len(closes) == 0 {
		return math.NaN()
	}
	peak, worst := closes[0], 0.0
	for _, c := range closes {
		peak = math.Max(peak, c)
		if peak > 0 {
			worst = math.Min(worst, (c-peak)/peak)
		}
	}
	return worst * 100
}

// Sharpe is the annualized Sharpe ratio; riskFree is a yearly fraction.
func Sharpe(returns []float64, riskFree float64) float64 {
	vol := AnnualizedVolatility(returns)
	if math.IsNaN(vol) || vol == 0 {
		return math.NaN()
	}
	excess := mean(returns)*TradingDays - riskFree
	return excess / vol
}

// Beta is cov(fund, benchmark) / var(benchmark) over the common tail.
func Beta(fund, bench []float64) float64 {
	n := min(len(fund), len(bench))
	if n < 2 {
		return math.NaN()
	}
	f, b := fund[len(fund)-n:], bench[len(bench)-n:]
	mf, mb := mean(f), mean(b)
	cov, vb := 0.0, 0.0
	for i := 0; i < n; i++ {
		cov += (f[i] - mf) * (b[i] - mb)
		vb += (b[i] - mb) * (b[i] - mb)
	}
	if vb == 0 {
		return math.NaN()
	}
	return cov / vb
}

// Alpha is Jensen's alpha annualized, in percent.
func Alpha(fund, bench []float64, riskFree float64) float64 {
	beta := Beta(fund, bench)
	if math.IsNaN(beta) {
		return math.NaN()
	}
	n := min(len(fund), len(bench))
	rf := mean(fund[len(fund)-n:]) * TradingDays
	rb := mean(bench[len(bench)-n:]) * TradingDays
	return (rf - (riskFree + beta*(rb-riskFree))) * 100
}

// HistoricalVaR is the loss not exceeded with the given confidence, as a
// non-positive daily percent.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 || confidence <= 0 || confidence >= 1 {
		return math.NaN()
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return math.Min(0, sorted[idx]) * 100
}
