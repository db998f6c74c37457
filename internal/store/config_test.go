package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-advisor/internal/batch"
	"fund-advisor/internal/signal"
	"fund-advisor/internal/types"
)

func TestParseConfigDefaults(t *testing.T) {
	c, err := ParseConfig([]byte("funds: [\"000001\", \"110022\"]\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, c.Batch.MaxWorkers)
	assert.Equal(t, 30*time.Second, c.Batch.Timeout)
	assert.Equal(t, 2, c.Batch.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, c.Batch.Backoff.Initial)
	assert.Equal(t, "mock", c.Provider.Kind)
	assert.Equal(t, "data/history", c.History.Dir)
	assert.Equal(t, []string{"000001", "110022"}, c.Funds)
	assert.Equal(t, signal.DefaultConfig(), c.SignalConfig())

	bc := c.BatchConfig()
	assert.Equal(t, batch.DefaultConfig(), bc)
	assert.NoError(t, bc.Validate())
}

func TestParseConfigOverrides(t *testing.T) {
	yml := `
batch:
  max_workers: 8
  timeout: 5s
  max_retries: 0
weights:
  technical: 0.4
  fundamental: 0.3
  sentiment: 0.2
  market: 0.1
indicator_weights:
  technical:
    rsi: 0.5
    macd: 0.3
    kdj: 0.2
weight_profiles:
  bond:
    fundamental: 0.7
    market: 0.3
thresholds:
  strong_buy: 85
  buy: 65
  hold: 45
  sell: 25
`
	c, err := ParseConfig([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, 8, c.Batch.MaxWorkers)
	assert.Equal(t, 0, c.Batch.MaxRetries, "explicit zero survives defaults")

	sc := c.SignalConfig()
	assert.Equal(t, 0.4, sc.CategoryWeights[types.CategoryTechnical])
	assert.Equal(t, 0.2, sc.IndicatorWeights[types.CategoryTechnical][signal.IndicatorKDJ])
	assert.Equal(t, 0.7, sc.IndicatorWeights[types.CategorySentiment][signal.IndicatorNewsSentiment], "untouched categories keep defaults")
	assert.Equal(t, 0.7, sc.WeightsFor(types.FundBond)[types.CategoryFundamental])
	assert.Equal(t, 85.0, sc.Thresholds.StrongBuy)
}

func TestParseConfigRejects(t *testing.T) {
	tests := map[string]string{
		"zero workers":        "batch: {max_workers: 0}",
		"negative retries":    "batch: {max_retries: -1}",
		"zero timeout":        "batch: {timeout: 0s}",
		"backoff inverted":    "batch: {backoff: {initial: 2s, max: 1s}}",
		"unknown provider":    "provider: {kind: ftp}",
		"file without dir":    "provider: {kind: file}",
		"http without url":    "provider: {kind: http}",
		"http bad url":        "provider: {kind: http, url: not-a-url}",
		"weights off":         "weights: {technical: 0.5, fundamental: 0.3, sentiment: 0.2, market: 0.15}",
		"thresholds unsorted": "thresholds: {strong_buy: 80, buy: 60, hold: 70, sell: 20}",
		"empty fund id":       "funds: [\"a\", \" \"]",
	}
	for name, yml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(yml))
			require.Error(t, err)
			assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
		})
	}

	_, err := ParseConfig([]byte("batch: [1, 2"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADVISOR_MAX_WORKERS", "2")
	t.Setenv("ADVISOR_TIMEOUT", "750ms")
	t.Setenv("ADVISOR_FUNDS", "000001, 161725")

	c, err := ParseConfig([]byte("funds: [\"x\"]"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Batch.MaxWorkers)
	assert.Equal(t, 750*time.Millisecond, c.Batch.Timeout)
	assert.Equal(t, []string{"000001", "161725"}, c.Funds)

	t.Setenv("ADVISOR_MAX_WORKERS", "many")
	_, err = ParseConfig(nil)
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: {kind: file, dir: ./data}\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file", c.Provider.Kind)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
