package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fund-advisor/internal/types"
)

func TestSummarize(t *testing.T) {
	rec := func(id string, tier types.SignalType, score, conf float64) *types.Recommendation {
		return &types.Recommendation{FundID: id, SignalType: tier, Score: score, Confidence: conf}
	}
	results := []types.AnalysisResult{
		{FundID: "a", Status: types.StatusSuccess, Recommendation: rec("a", types.Buy, 72, 0.5)},
		{FundID: "b", Status: types.StatusSuccess, Recommendation: rec("b", types.StrongBuy, 88, 0.8)},
		{FundID: "c", Status: types.StatusSuccess, Recommendation: rec("c", types.Sell, 30, 0.9)},
		{FundID: "d", Status: types.StatusFailed, ErrorKind: types.KindTimeout},
		{FundID: "e", Status: types.StatusFailed, ErrorKind: types.KindProviderPermanent},
		{FundID: "f", Status: types.StatusSkipped, ErrorKind: types.KindCanceled},
	}

	s := Summarize("run-1", results, time.Unix(0, 0), time.Second, 2)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 3, s.Success)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Timeouts)
	assert.Equal(t, map[types.ErrorKind]int{types.KindTimeout: 1, types.KindProviderPermanent: 1}, s.ByKind)
	if assert.Len(t, s.TopPicks, 2) {
		assert.Equal(t, "b", s.TopPicks[0].FundID)
		assert.Equal(t, "a", s.TopPicks[1].FundID)
	}
}
