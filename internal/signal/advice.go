package signal

import (
	"math"
	"strings"

	"fund-advisor/internal/types"
)

// fundTypeKeywords is checked in order; the first matching group wins.
var fundTypeKeywords = []struct {
	fundType types.FundType
	keywords []string
}{
	{types.FundEquity, []string{"股票", "成长", "价值", "主题", "equity", "stock", "growth", "value"}},
	{types.FundBond, []string{"债券", "纯债", "信用", "bond", "credit", "fixed income"}},
	{types.FundHybrid, []string{"混合", "配置", "平衡", "hybrid", "mixed", "balanced", "allocation"}},
	{types.FundIndex, []string{"指数", "etf", "lof", "index"}},
	{types.FundMoneyMarket, []string{"货币", "现金", "money market", "cash"}},
}

// DetectFundType infers the fund type from its name, defaulting to hybrid.
func DetectFundType(name string) types.FundType {
	lower := strings.ToLower(name)
	for _, group := range fundTypeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.fundType
			}
		}
	}
	return types.FundHybrid
}

// RiskInputs are the readings the risk assessment looks at. NaN means unknown
// and contributes nothing.
type RiskInputs struct {
	AnnualVolatility float64 // fraction, 0.25 = 25%
	MaxDrawdown      float64 // percent, sign ignored
	FearGreed        float64 // 0-100
}

// AssessRisk grades the fund's risk environment by accumulating points.
func AssessRisk(in RiskInputs) types.RiskLevel {
	points := 0
	switch {
	case in.AnnualVolatility > 0.30:
		points += 2
	case in.AnnualVolatility > 0.20:
		points++
	}
	dd := math.Abs(in.MaxDrawdown)
	switch {
	case dd > 30:
		points += 2
	case dd > 20:
		points++
	}
	if in.FearGreed < 20 || in.FearGreed > 80 {
		points++
	}
	// panic selling
	if in.FearGreed <= 10 {
		points++
	}

	switch {
	case points >= 4:
		return types.RiskHigh
	case points >= 2:
		return types.RiskMedium
	}
	return types.RiskLow
}

// SuggestPosition maps tier, risk and score onto an allocation range.
func SuggestPosition(tier types.SignalType, risk types.RiskLevel, score float64) types.PositionSize {
	build := func(lo, hi float64, label string) types.PositionSize {
		return types.PositionSize{Action: types.PositionBuild, MinPct: lo, MaxPct: hi, Label: label}
	}
	switch tier {
	case types.StrongBuy:
		switch {
		case risk == types.RiskLow && score > 80:
			return build(50, 70, "Heavy position")
		case risk == types.RiskHigh:
			return build(10, 30, "Light position")
		}
		return build(30, 50, "Medium position")
	case types.Buy:
		switch {
		case risk == types.RiskHigh:
			return build(5, 15, "Watch position")
		case risk == types.RiskLow || score > 70:
			return build(30, 50, "Medium position")
		}
		return build(10, 30, "Light position")
	case types.Hold:
		return types.PositionSize{Action: types.PositionHold, Label: "Maintain current position"}
	case types.Sell:
		return types.PositionSize{Action: types.PositionReduce, MinPct: 50, MaxPct: 80, Label: "Reduce substantially"}
	}
	return types.PositionSize{Action: types.PositionExit, MinPct: 100, MaxPct: 100, Label: "Exit position"}
}

var holdingDays = map[types.SignalType]map[types.FundType]int{
	types.StrongBuy: {types.FundEquity: 90, types.FundBond: 180, types.FundHybrid: 120, types.FundIndex: 60, types.FundMoneyMarket: 30},
	types.Buy:       {types.FundEquity: 60, types.FundBond: 120, types.FundHybrid: 90, types.FundIndex: 45, types.FundMoneyMarket: 30},
	types.Hold:      {types.FundEquity: 180, types.FundBond: 365, types.FundHybrid: 270, types.FundIndex: 180, types.FundMoneyMarket: 90},
}

// HoldingPeriod returns the expected holding period in days. Sell tiers have
// none and return 0.
func HoldingPeriod(tier types.SignalType, ft types.FundType) int {
	byType, ok := holdingDays[tier]
	if !ok {
		return 0
	}
	if d, ok := byType[ft]; ok {
		return d
	}
	return 60
}
