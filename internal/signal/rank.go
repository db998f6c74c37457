package signal

import (
	"sort"

	"fund-advisor/internal/types"
)

var tierWeight = map[types.SignalType]float64{
	types.StrongBuy:  1.0,
	types.Buy:        0.8,
	types.Hold:       0.2,
	types.Sell:       -0.8,
	types.StrongSell: -1.0,
}

// Attractiveness is score x confidence x tier weight. Sell tiers are
// negative so they rank below every hold.
func Attractiveness(r types.Recommendation) float64 {
	return r.Score * r.Confidence * tierWeight[r.SignalType]
}

// Rank orders recommendations by descending attractiveness, breaking ties by
// fund id, and returns at most limit picks (all when limit <= 0).
func Rank(recs []types.Recommendation, limit int) []types.Pick {
	picks := make([]types.Pick, 0, len(recs))
	for _, r := range recs {
		picks = append(picks, types.Pick{
			FundID:         r.FundID,
			SignalType:     r.SignalType,
			Score:          r.Score,
			Confidence:     r.Confidence,
			Attractiveness: Attractiveness(r),
		})
	}
	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].Attractiveness != picks[j].Attractiveness {
			return picks[i].Attractiveness > picks[j].Attractiveness
		}
		return picks[i].FundID < picks[j].FundID
	})
	if limit > 0 && len(picks) > limit {
		picks = picks[:limit]
	}
	return picks
}
