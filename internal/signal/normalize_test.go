package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-advisor/internal/types"
)

func allIndicators() []string {
	var names []string
	for _, cat := range types.Categories {
		names = append(names, Indicators(cat)...)
	}
	return names
}

func TestNormalizeBoundsUnderAdversarialInput(t *testing.T) {
	raws := []float64{-math.MaxFloat64, -1e9, -100, -1, 0, 0.5, 1, 30, 70, 100, 1e9, math.MaxFloat64, math.Inf(1), math.Inf(-1)}
	refs := []*float64{nil, ptr(math.Inf(-1)), ptr(-1e9), ptr(0), ptr(1e-300), ptr(3), ptr(math.Inf(1))}

	names := allIndicators()
	require.Len(t, names, 16)

	for _, name := range names {
		cat, ok := CategoryOf(name)
		require.True(t, ok)
		for _, raw := range raws {
			for _, ref := range refs {
				s := types.IndicatorSample{Name: name, Category: cat, RawValue: raw, Reference: ref}
				ns, err := Normalize(s)
				require.NoError(t, err, "%s raw=%v", name, raw)
				assert.False(t, math.IsNaN(ns.Score), "%s raw=%v ref=%v", name, raw, ref)
				assert.GreaterOrEqual(t, ns.Score, 0.0, "%s raw=%v", name, raw)
				assert.LessOrEqual(t, ns.Score, 100.0, "%s raw=%v", name, raw)
				assert.False(t, math.IsInf(ns.RawValue, 0))
				assert.NotEmpty(t, ns.Clause)
			}
		}
	}
}

func TestNormalizeMissingValue(t *testing.T) {
	_, err := Normalize(types.NewSample(IndicatorRSI, types.CategoryTechnical, math.NaN(), ""))
	require.Error(t, err)
	assert.Equal(t, types.KindMissingIndicator, types.KindOf(err))
}

func TestNormalizeRejectsUnknownAndMiscategorized(t *testing.T) {
	_, err := Normalize(types.NewSample("vix", types.CategoryMarket, 20, ""))
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))

	_, err = Normalize(types.NewSample(IndicatorRSI, types.CategoryMarket, 50, ""))
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))

	// an empty category is filled in from the mapping
	ns, err := Normalize(types.IndicatorSample{Name: IndicatorRSI, RawValue: 50})
	require.NoError(t, err)
	assert.Equal(t, types.CategoryTechnical, ns.Category)
}

func TestRSIRewardsOversoldAndMomentum(t *testing.T) {
	score := func(raw float64, slope *float64) float64 {
		ns, err := Normalize(types.IndicatorSample{Name: IndicatorRSI, RawValue: raw, Reference: slope})
		require.NoError(t, err)
		return ns.Score
	}

	assert.InDelta(t, 85, score(30, nil), 1e-9)
	assert.InDelta(t, 40, score(70, nil), 1e-9)
	assert.InDelta(t, 85, score(70, ptr(5)), 1e-9)
	assert.InDelta(t, 22, score(85, nil), 1e-9)
	assert.Greater(t, score(30, nil), score(85, nil))
	assert.Greater(t, score(72, ptr(4)), score(72, ptr(-2)))
}

func TestNewsSentimentDampedByArticleCount(t *testing.T) {
	sample := types.NewSample(IndicatorNewsSentiment, types.CategorySentiment, 1, "polarity")

	// no article count means no confidence in the polarity
	ns, err := Normalize(sample)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ns.Score)
	assert.Equal(t, types.Neutral, ns.Direction)

	ns, err = Normalize(sample.WithReference(50))
	require.NoError(t, err)
	assert.Greater(t, ns.Score, 99.0)
	assert.Equal(t, types.Bullish, ns.Direction)

	few, err := Normalize(sample.WithReference(1))
	require.NoError(t, err)
	assert.Less(t, few.Score, ns.Score)
}

func TestDirection(t *testing.T) {
	tests := []struct {
		name   string
		sample types.IndicatorSample
		want   types.Direction
	}{
		{"macd positive", types.NewSample(IndicatorMACD, types.CategoryTechnical, 0.01, "").WithReference(1), types.Bullish},
		{"macd negative", types.NewSample(IndicatorMACD, types.CategoryTechnical, -0.01, "").WithReference(1), types.Bearish},
		{"greed", types.NewSample(IndicatorFearGreed, types.CategoryMarket, 90, ""), types.Bearish},
		{"fear", types.NewSample(IndicatorFearGreed, types.CategoryMarket, 10, ""), types.Bullish},
		{"rates rising", types.NewSample(IndicatorRateTrend, types.CategoryMarket, 25, "bp"), types.Bearish},
		{"flat trend", types.NewSample(IndicatorMarketTrend, types.CategoryMarket, 0, "%"), types.Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := Normalize(tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ns.Direction)
		})
	}
}

func TestIndicatorsPerCategory(t *testing.T) {
	assert.Equal(t, []string{IndicatorBollinger, IndicatorKDJ, IndicatorMAAlignment, IndicatorMACD, IndicatorRSI}, Indicators(types.CategoryTechnical))
	assert.Len(t, Indicators(types.CategoryFundamental), 6)
	assert.Len(t, Indicators(types.CategorySentiment), 2)
	assert.Len(t, Indicators(types.CategoryMarket), 3)
	assert.Empty(t, Indicators("macro"))
}

func ptr(v float64) *float64 { return &v }
