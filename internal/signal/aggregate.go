package signal

import (
	"fmt"
	"sort"

	"fund-advisor/internal/types"
)

// Aggregate combines one category's normalized scores into a CategoryScore.
// Only indicators with a positive configured weight contribute; weights of
// absent indicators are redistributed across the present ones. Scores of
// other categories are ignored. Zero contributors yields ErrMissingIndicator
// so the fusion step can drop the category.
func Aggregate(cat types.Category, scores []types.NormalizedScore, weights Weights[string]) (types.CategoryScore, error) {
	metrics := make(map[string]types.NormalizedScore)
	present := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.Category != cat {
			continue
		}
		if _, dup := metrics[s.Indicator]; !dup {
			present = append(present, s.Indicator)
		}
		metrics[s.Indicator] = s
	}

	// float sums depend on order
	sort.Strings(present)
	effective := Redistribute(weights, present)
	if len(effective) == 0 {
		return types.CategoryScore{Category: cat, Metrics: metrics}, fmt.Errorf("%s: %w", cat, types.ErrMissingIndicator)
	}

	total := 0.0
	for _, name := range present {
		w, ok := effective[name]
		if !ok {
			continue
		}
		m := metrics[name]
		m.Weight = w
		metrics[name] = m
		total += w * m.Score
	}

	return types.CategoryScore{
		Category:     cat,
		Score:        clampScore(total),
		Contributing: len(effective),
		Metrics:      metrics,
	}, nil
}

// NormalizeAll scores every sample, dropping the ones with missing values.
// Unknown or miscategorized indicators are reported as ErrInvalidInput.
func NormalizeAll(samples []types.IndicatorSample) ([]types.NormalizedScore, int, error) {
	out := make([]types.NormalizedScore, 0, len(samples))
	dropped := 0
	for _, s := range samples {
		ns, err := Normalize(s)
		if err != nil {
			if types.KindOf(err) == types.KindMissingIndicator {
				dropped++
				continue
			}
			return nil, dropped, err
		}
		out = append(out, ns)
	}
	return out, dropped, nil
}

// AggregateAll builds a CategoryScore for every category that has at least
// one contributing indicator.
func AggregateAll(scores []types.NormalizedScore, weights map[types.Category]Weights[string]) map[types.Category]types.CategoryScore {
	out := make(map[types.Category]types.CategoryScore, len(types.Categories))
	for _, cat := range types.Categories {
		cs, err := Aggregate(cat, scores, weights[cat])
		if err != nil {
			continue
		}
		out[cat] = cs
	}
	return out
}
