package batch

import (
	"time"

	"fund-advisor/internal/signal"
	"fund-advisor/internal/types"
)

// Summarize counts outcomes and ranks the successful recommendations.
func Summarize(runID string, results []types.AnalysisResult, started time.Time, elapsed time.Duration, topPicks int) types.BatchSummary {
	s := types.BatchSummary{
		RunID:     runID,
		Total:     len(results),
		ByKind:    make(map[types.ErrorKind]int),
		StartedAt: started,
		Duration:  elapsed,
	}
	recs := make([]types.Recommendation, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case types.StatusSuccess:
			s.Success++
			if r.Recommendation != nil {
				recs = append(recs, *r.Recommendation)
			}
		case types.StatusFailed:
			s.Failed++
			s.ByKind[r.ErrorKind]++
			if r.ErrorKind == types.KindTimeout {
				s.Timeouts++
			}
		case types.StatusSkipped:
			s.Skipped++
		}
	}
	s.TopPicks = signal.Rank(recs, topPicks)
	return s
}
