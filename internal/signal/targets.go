package signal

import (
	"math"

	"github.com/shopspring/decimal"

	"fund-advisor/internal/types"
)

const (
	minVolatility = 0.005
	maxDownMove   = 0.95
	pricePlaces   = 4
)

// tierMultiplier is how many volatilities the target sits from entry.
func tierMultiplier(tier types.SignalType) float64 {
	switch tier {
	case types.StrongBuy, types.StrongSell:
		return 2.0
	case types.Buy, types.Sell:
		return 1.5
	}
	return 1.0
}

// stopMultiplier widens the stop for riskier funds so normal noise does not
// trigger it.
func stopMultiplier(risk types.RiskLevel) float64 {
	switch risk {
	case types.RiskLow:
		return 0.75
	case types.RiskHigh:
		return 1.25
	}
	return 1.0
}

// PriceTargets derives a target and stop-loss from the entry price and the
// volatility over the holding horizon. Buy and hold tiers place the stop
// below entry and the target above; sell tiers reverse that.
func PriceTargets(entry, volatility float64, tier types.SignalType, risk types.RiskLevel) (target, stop float64, err error) {
	if math.IsNaN(entry) || math.IsInf(entry, 0) || entry <= 0 {
		return 0, 0, types.Invalid("entry price must be positive, got %v", entry)
	}
	if math.IsNaN(volatility) || math.IsInf(volatility, 0) || volatility < 0 {
		return 0, 0, types.Invalid("volatility must be non-negative, got %v", volatility)
	}
	if tier.Rank() < 0 {
		return 0, 0, types.Invalid("unknown signal type %q", tier)
	}
	vol := math.Max(volatility, minVolatility)

	targetMove := tierMultiplier(tier) * vol
	stopMove := stopMultiplier(risk) * vol

	if tier.IsSell() {
		target = entry * (1 - math.Min(targetMove, maxDownMove))
		stop = entry * (1 + stopMove)
	} else {
		target = entry * (1 + targetMove)
		stop = entry * (1 - math.Min(stopMove, maxDownMove))
	}

	if math.IsInf(target, 0) || math.IsInf(stop, 0) {
		return 0, 0, types.Invalid("price move overflows: entry %v, volatility %v", entry, volatility)
	}

	rt, rs := round(target), round(stop)
	if ordered(rt, entry, rs, tier) {
		return rt, rs, nil
	}
	return target, stop, nil
}

func ordered(target, entry, stop float64, tier types.SignalType) bool {
	if tier.IsSell() {
		return target > 0 && target < entry && entry < stop
	}
	return stop > 0 && stop < entry && entry < target
}

func round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(pricePlaces).Float64()
	return f
}

// HorizonVolatility scales annualized volatility to the holding horizon,
// never shorter than one trading month.
func HorizonVolatility(annual float64, holdingDays int) float64 {
	if math.IsNaN(annual) || annual <= 0 {
		return 0
	}
	days := math.Max(float64(holdingDays), 20)
	return annual * math.Sqrt(days/252)
}
