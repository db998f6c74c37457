package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-advisor/internal/types"
)

func score(name string, cat types.Category, s float64) types.NormalizedScore {
	return types.NormalizedScore{Indicator: name, Category: cat, Score: s, Clause: name}
}

func TestAggregateRedistributesOverPresentIndicators(t *testing.T) {
	scores := []types.NormalizedScore{
		score(IndicatorMAAlignment, types.CategoryTechnical, 80),
		score(IndicatorMACD, types.CategoryTechnical, 60),
		score(IndicatorKDJ, types.CategoryTechnical, 10),
		score(IndicatorBeta, types.CategoryFundamental, 0),
	}

	cs, err := Aggregate(types.CategoryTechnical, scores, DefaultIndicatorWeights()[types.CategoryTechnical])
	require.NoError(t, err)

	assert.InDelta(t, 70, cs.Score, 1e-9)
	assert.Equal(t, 2, cs.Contributing)
	assert.Equal(t, 70, cs.Display())

	// kdj has no weight: listed but not contributing
	require.Contains(t, cs.Metrics, IndicatorKDJ)
	assert.Zero(t, cs.Metrics[IndicatorKDJ].Weight)
	assert.InDelta(t, 0.5, cs.Metrics[IndicatorMACD].Weight, 1e-12)
	assert.NotContains(t, cs.Metrics, IndicatorBeta)
}

func TestAggregateIgnoresInputOrder(t *testing.T) {
	scores := []types.NormalizedScore{
		score(IndicatorBeta, types.CategoryFundamental, 41.37),
		score(IndicatorAlpha, types.CategoryFundamental, 77.019),
		score(IndicatorSharpe, types.CategoryFundamental, 63.3333),
		score(IndicatorMaxDrawdown, types.CategoryFundamental, 12.71),
		score(IndicatorVaR, types.CategoryFundamental, 58.0001),
		score(IndicatorAnnualReturn, types.CategoryFundamental, 90.9),
	}
	weights := DefaultIndicatorWeights()[types.CategoryFundamental]

	first, err := Aggregate(types.CategoryFundamental, scores, weights)
	require.NoError(t, err)
	reversed := make([]types.NormalizedScore, len(scores))
	for i, s := range scores {
		reversed[len(scores)-1-i] = s
	}
	for i := 0; i < 200; i++ {
		in := scores
		if i%2 == 1 {
			in = reversed
		}
		cs, err := Aggregate(types.CategoryFundamental, in, weights)
		require.NoError(t, err)
		require.Equal(t, first.Score, cs.Score, "call %d", i)
	}
}

func TestAggregateWithoutContributors(t *testing.T) {
	scores := []types.NormalizedScore{score(IndicatorKDJ, types.CategoryTechnical, 10)}

	cs, err := Aggregate(types.CategoryTechnical, scores, DefaultIndicatorWeights()[types.CategoryTechnical])
	require.Error(t, err)
	assert.Equal(t, types.KindMissingIndicator, types.KindOf(err))
	assert.Zero(t, cs.Contributing)
}

func TestNormalizeAllDropsMissing(t *testing.T) {
	samples := []types.IndicatorSample{
		types.NewSample(IndicatorRSI, types.CategoryTechnical, 30, ""),
		types.NewSample(IndicatorMACD, types.CategoryTechnical, math.NaN(), ""),
		types.NewSample(IndicatorFearGreed, types.CategoryMarket, 40, ""),
	}
	scores, dropped, err := NormalizeAll(samples)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Len(t, scores, 2)

	_, _, err = NormalizeAll(append(samples, types.NewSample("pe_ratio", types.CategoryFundamental, 12, "")))
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
}

func TestAggregateAllSkipsEmptyCategories(t *testing.T) {
	scores := []types.NormalizedScore{
		score(IndicatorRSI, types.CategoryTechnical, 85),
		score(IndicatorFearGreed, types.CategoryMarket, 60),
	}
	out := AggregateAll(scores, DefaultIndicatorWeights())
	require.Len(t, out, 2)
	assert.InDelta(t, 85, out[types.CategoryTechnical].Score, 1e-9)
	assert.InDelta(t, 60, out[types.CategoryMarket].Score, 1e-9)
}

func TestRedistributeSumsToOne(t *testing.T) {
	weights := DefaultCategoryWeights()
	cats := types.Categories

	for mask := 1; mask < 1<<len(cats); mask++ {
		var present []types.Category
		for i, c := range cats {
			if mask&(1<<i) != 0 {
				present = append(present, c)
			}
		}
		eff := Redistribute(weights, present)
		require.Len(t, eff, len(present))

		sum := 0.0
		for _, w := range eff {
			sum += w
		}
		assert.InDelta(t, 1, sum, 1e-9, "subset %v", present)
	}

	assert.Nil(t, Redistribute(weights, nil))
	assert.Nil(t, Redistribute(Weights[string]{"a": 0}, []string{"a"}))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"category sum", func(c *Config) { c.CategoryWeights[types.CategoryMarket] = 0.2 }},
		{"negative weight", func(c *Config) {
			c.CategoryWeights[types.CategoryMarket] = -0.15
			c.CategoryWeights[types.CategoryTechnical] = 0.65
		}},
		{"unknown category", func(c *Config) {
			c.CategoryWeights["macro"] = 0
		}},
		{"indicator in wrong category", func(c *Config) {
			c.IndicatorWeights[types.CategoryMarket][IndicatorRSI] = 0.1
		}},
		{"unknown indicator", func(c *Config) {
			c.IndicatorWeights[types.CategoryMarket]["vix"] = 0.1
		}},
		{"thresholds not decreasing", func(c *Config) { c.Thresholds.Buy = 85 }},
		{"threshold out of range", func(c *Config) { c.Thresholds.StrongBuy = 101 }},
		{"profile sum", func(c *Config) {
			c.Profiles = map[types.FundType]Weights[types.Category]{types.FundBond: {types.CategoryFundamental: 0.9}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
		})
	}
}

func TestWeightsForProfile(t *testing.T) {
	cfg := DefaultConfig()
	bond := Weights[types.Category]{types.CategoryFundamental: 0.6, types.CategoryMarket: 0.4}
	cfg.Profiles = map[types.FundType]Weights[types.Category]{types.FundBond: bond}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, bond, cfg.WeightsFor(types.FundBond))
	assert.Equal(t, cfg.CategoryWeights, cfg.WeightsFor(types.FundEquity))
}
