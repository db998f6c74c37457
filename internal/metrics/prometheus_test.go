package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-advisor/internal/types"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.RecordResult(types.StatusSuccess, types.KindNone)
	r.RecordResult(types.StatusSuccess, types.KindNone)
	r.RecordResult(types.StatusFailed, types.KindTimeout)
	r.RecordRetry(types.KindProviderTransient)
	r.RecordSignal(types.Buy)
	r.InFlight(1)
	r.InFlight(1)
	r.InFlight(-1)
	r.RecordLatency("fund", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.results.WithLabelValues("success", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.results.WithLabelValues("failed", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.retries.WithLabelValues("provider_transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signals.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.inFlight))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestRecordersAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.RecordSignal(types.Sell)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.signals.WithLabelValues("SELL")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordResult(types.StatusSkipped, types.KindCanceled)

	path := filepath.Join(t.TempDir(), "advisor.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `advisor_fund_results_total{kind="canceled",status="skipped"} 1`)
}
