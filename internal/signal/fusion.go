package signal

import (
	"math"
	"sort"

	"fund-advisor/internal/types"
)

const (
	// boundaryScale is the distance from a tier boundary at which the
	// boundary factor saturates; half the narrowest default band.
	boundaryScale = 10.0
	// agreementScale is the category stddev at which agreement reaches zero.
	agreementScale = 25.0
	// maxTrendAdjust bounds the confidence shift from the composite's trend.
	maxTrendAdjust = 0.1
	// minContribution drops reasoning clauses that barely moved the score.
	minContribution = 0.25
)

// Fuse combines category scores into a composite using weights redistributed
// over the present categories. It fails with ErrInsufficientData only when
// no category is present.
func Fuse(fundID string, categories map[types.Category]types.CategoryScore, weights Weights[types.Category]) (types.CompositeScore, error) {
	present := make([]types.Category, 0, len(categories))
	for _, cat := range types.Categories {
		if cs, ok := categories[cat]; ok && cs.Contributing > 0 {
			present = append(present, cat)
		}
	}
	effective := Redistribute(weights, present)
	if len(effective) == 0 {
		return types.CompositeScore{FundID: fundID}, types.ErrInsufficientData
	}

	breakdown := make(map[types.Category]types.CategoryScore, len(effective))
	score := 0.0
	for _, cat := range present {
		w, ok := effective[cat]
		if !ok {
			continue
		}
		cs := categories[cat]
		breakdown[cat] = cs
		score += w * cs.Score
	}

	return types.CompositeScore{
		FundID:    fundID,
		Score:     clampScore(score),
		Breakdown: breakdown,
		Weights:   effective,
	}, nil
}

// Classify maps a composite score onto a tier. A score sitting exactly on a
// boundary never lands in the more aggressive tier: exactly StrongBuy is a
// buy and exactly Sell is a sell, not a strong sell.
func Classify(score float64, t Thresholds) types.SignalType {
	switch {
	case score > t.StrongBuy:
		return types.StrongBuy
	case score >= t.Buy:
		return types.Buy
	case score >= t.Hold:
		return types.Hold
	case score >= t.Sell:
		return types.Sell
	}
	return types.StrongSell
}

// Confidence grades how trustworthy a tier assignment is. It rises with
// distance from the nearest tier boundary and with agreement across
// categories, and is scaled down when categories are missing. previous is the
// fund's last composite score, or NaN when unknown.
func Confidence(c types.CompositeScore, tier types.SignalType, t Thresholds, previous float64) float64 {
	boundary := math.Min(1, nearestBoundary(c.Score, t)/boundaryScale)

	agreement := 0.5
	if len(c.Breakdown) > 1 {
		agreement = 1 - math.Min(1, stddev(c.Breakdown)/agreementScale)
	}
	coverage := float64(len(c.Breakdown)) / float64(len(types.Categories))

	conf := (0.6*boundary + 0.4*agreement) * (0.5 + 0.5*coverage)
	conf += trendAdjustment(c.Score, previous, tier)
	return clampRange(conf, 0, 1)
}

// Reasoning lists the indicators that pushed the composite away from neutral,
// strongest first. Each clause states one fact about one indicator.
func Reasoning(c types.CompositeScore) []string {
	type contribution struct {
		clause string
		name   string
		weight float64
	}
	var contribs []contribution
	for cat, cw := range c.Weights {
		cs := c.Breakdown[cat]
		for name, m := range cs.Metrics {
			if m.Weight <= 0 {
				continue
			}
			push := cw * m.Weight * (m.Score - neutralScore)
			if math.Abs(push) < minContribution {
				continue
			}
			contribs = append(contribs, contribution{clause: m.Clause, name: name, weight: push})
		}
	}
	sort.Slice(contribs, func(i, j int) bool {
		ai, aj := math.Abs(contribs[i].weight), math.Abs(contribs[j].weight)
		if ai != aj {
			return ai > aj
		}
		return contribs[i].name < contribs[j].name
	})

	out := make([]string, 0, len(contribs))
	for _, ct := range contribs {
		out = append(out, ct.clause)
	}
	if len(out) == 0 {
		out = append(out, "Composite score near neutral, no dominant factor")
	}
	return out
}

func nearestBoundary(score float64, t Thresholds) float64 {
	d := math.Inf(1)
	for _, b := range []float64{t.StrongBuy, t.Buy, t.Hold, t.Sell} {
		d = math.Min(d, math.Abs(score-b))
	}
	return d
}

// stddev walks categories in fusion order so repeated calls agree bit for bit.
func stddev(breakdown map[types.Category]types.CategoryScore) float64 {
	scores := make([]float64, 0, len(breakdown))
	for _, cat := range types.Categories {
		if cs, ok := breakdown[cat]; ok {
			scores = append(scores, cs.Score)
		}
	}
	n := float64(len(scores))
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= n
	v := 0.0
	for _, s := range scores {
		d := s - mean
		v += d * d
	}
	return math.Sqrt(v / n)
}

// trendAdjustment rewards a composite moving toward its tier's side and
// penalizes one moving against it. Hold is direction-free.
func trendAdjustment(score, previous float64, tier types.SignalType) float64 {
	if math.IsNaN(previous) || tier == types.Hold {
		return 0
	}
	delta := score - previous
	if tier.IsSell() {
		delta = -delta
	}
	return clampRange(delta/100, -maxTrendAdjust, maxTrendAdjust)
}
