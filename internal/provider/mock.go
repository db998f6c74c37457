package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"fund-advisor/internal/types"
)

var mockNames = []struct {
	name     string
	fundType types.FundType
	drift    float64
	vol      float64
}{
	{"Growth Equity Fund", types.FundEquity, 0.0006, 0.018},
	{"Pure Bond Fund", types.FundBond, 0.0002, 0.002},
	{"Balanced Hybrid Fund", types.FundHybrid, 0.0003, 0.010},
	{"CSI 300 Index ETF", types.FundIndex, 0.0004, 0.014},
	{"Cash Money Market Fund", types.FundMoneyMarket, 0.0001, 0.0003},
}

// MockProvider generates a deterministic NAV history per fund id, for dry
// runs and tests. The same seed and id always produce the same snapshot.
type MockProvider struct {
	seed int64
	days int
	now  func() time.Time
}

// NewMockProvider creates a generator producing days of history.
func NewMockProvider(seed int64, days int) *MockProvider {
	if days <= 0 {
		days = 260
	}
	return &MockProvider{seed: seed, days: days, now: time.Now}
}

func (m *MockProvider) Fetch(ctx context.Context, fundID string) (types.FundSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.FundSnapshot{}, err
	}
	h, err := m.History(fundID)
	if err != nil {
		return types.FundSnapshot{}, types.Permanent(fundID, err)
	}
	return h.Snapshot()
}

// History builds the synthetic series behind Fetch.
func (m *MockProvider) History(fundID string) (NAVHistory, error) {
	if fundID == "" {
		return NAVHistory{}, types.Invalid("empty fund id")
	}
	hs := fnv.New64a()
	_, _ = hs.Write([]byte(fundID))
	key := int64(hs.Sum64() & math.MaxInt64)
	r := rand.New(rand.NewSource(m.seed ^ key))

	tmpl := mockNames[int(key%int64(len(mockNames)))]
	// each fund gets its own regime so a batch spans several tiers
	drift := tmpl.drift * (r.Float64()*4 - 1.5)

	nav := make([]float64, m.days)
	bench := make([]float64, m.days)
	nav[0] = 1 + r.Float64()*2
	bench[0] = 3000 + r.Float64()*1000
	for i := 1; i < m.days; i++ {
		mkt := r.NormFloat64() * 0.012
		bench[i] = bench[i-1] * (1 + 0.0003 + mkt)
		nav[i] = nav[i-1] * (1 + drift + 0.6*mkt*tmpl.vol/0.012 + r.NormFloat64()*tmpl.vol*0.5)
		if nav[i] <= 0 {
			nav[i] = nav[i-1] * 0.99
		}
	}

	peer := 0.3 + r.Float64()*0.8
	inst := 0.2 + r.Float64()*0.6
	fear := 10 + r.Float64()*80
	rates := r.Float64()*60 - 30

	return NAVHistory{
		FundID:     fundID,
		FundName:   fmt.Sprintf("%s %s", tmpl.name, fundID),
		FundType:   tmpl.fundType,
		AsOf:       m.now().UTC().Truncate(24 * time.Hour),
		NAV:        nav,
		Benchmark:  bench,
		PeerSharpe: &peer,
		Sentiment: &Sentiment{
			Polarity:           r.Float64()*2 - 1,
			Articles:           r.Intn(30),
			InstitutionalRatio: &inst,
		},
		Market: &Market{FearGreed: &fear, RateChangeBP: &rates},
	}, nil
}
