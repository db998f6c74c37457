package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-advisor/internal/types"
)

var allTiers = []types.SignalType{types.StrongBuy, types.Buy, types.Hold, types.Sell, types.StrongSell}

func TestPriceTargets(t *testing.T) {
	tests := []struct {
		name         string
		tier         types.SignalType
		risk         types.RiskLevel
		vol          float64
		target, stop float64
	}{
		{"buy", types.Buy, types.RiskMedium, 0.1, 1.15, 0.9},
		{"strong buy low risk", types.StrongBuy, types.RiskLow, 0.1, 1.2, 0.925},
		{"hold high risk", types.Hold, types.RiskHigh, 0.1, 1.1, 0.875},
		{"sell", types.Sell, types.RiskMedium, 0.1, 0.85, 1.1},
		{"strong sell capped", types.StrongSell, types.RiskMedium, 0.6, 0.05, 1.6},
		{"zero volatility floored", types.Buy, types.RiskMedium, 0, 1.0075, 0.995},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, stop, err := PriceTargets(1.0, tt.vol, tt.tier, tt.risk)
			require.NoError(t, err)
			assert.InDelta(t, tt.target, target, 1e-9)
			assert.InDelta(t, tt.stop, stop, 1e-9)
		})
	}
}

func TestPriceTargetsDirectionality(t *testing.T) {
	entries := []float64{0.0001, 0.9871, 1, 3.14159, 2500}
	vols := []float64{0, 0.001, 0.05, 0.3, 0.94, 2, 50}
	risks := []types.RiskLevel{types.RiskLow, types.RiskMedium, types.RiskHigh}

	for _, tier := range allTiers {
		for _, risk := range risks {
			for _, entry := range entries {
				for _, vol := range vols {
					target, stop, err := PriceTargets(entry, vol, tier, risk)
					require.NoError(t, err)
					assert.Greater(t, target, 0.0)
					assert.Greater(t, stop, 0.0)
					if tier.IsSell() {
						assert.Less(t, target, entry, "%s entry=%v vol=%v", tier, entry, vol)
						assert.Greater(t, stop, entry, "%s entry=%v vol=%v", tier, entry, vol)
					} else {
						assert.Less(t, stop, entry, "%s entry=%v vol=%v", tier, entry, vol)
						assert.Greater(t, target, entry, "%s entry=%v vol=%v", tier, entry, vol)
					}
				}
			}
		}
	}
}

func TestPriceTargetsInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		entry, vol float64
		tier       types.SignalType
	}{
		{"zero entry", 0, 0.1, types.Buy},
		{"negative entry", -1, 0.1, types.Buy},
		{"nan entry", math.NaN(), 0.1, types.Buy},
		{"inf entry", math.Inf(1), 0.1, types.Buy},
		{"negative vol", 1, -0.1, types.Sell},
		{"nan vol", 1, math.NaN(), types.Sell},
		{"unknown tier", 1, 0.1, "WEAK_BUY"},
		{"target overflows", 1.5, 1e308, types.StrongBuy},
		{"stop overflows", 1.5, 1.5e308, types.StrongSell},
		{"entry near max float", math.MaxFloat64 / 2, 0.5, types.Buy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PriceTargets(tt.entry, tt.vol, tt.tier, types.RiskMedium)
			assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
		})
	}
}

func TestHorizonVolatility(t *testing.T) {
	assert.InDelta(t, 0.2, HorizonVolatility(0.2, 252), 1e-12)
	assert.InDelta(t, 0.2*math.Sqrt(20.0/252), HorizonVolatility(0.2, 0), 1e-12)
	assert.InDelta(t, 0.2*math.Sqrt(60.0/252), HorizonVolatility(0.2, 60), 1e-12)
	assert.Zero(t, HorizonVolatility(math.NaN(), 60))
}
