package history

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-advisor/internal/types"
)

func rec(fundID string, score float64, at time.Time) types.Recommendation {
	return types.Recommendation{
		ID:         fundID + at.Format("150405"),
		FundID:     fundID,
		SignalType: types.Buy,
		Score:      score,
		Confidence: 0.7,
		CreatedAt:  at,
	}
}

func TestRecordAndReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	day := time.Date(2026, 10, 13, 9, 30, 0, 0, time.UTC)

	s, err := Open(ctx, dir)
	require.NoError(t, err)

	_, ok, err := s.PreviousScore(ctx, "000001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, rec("000001", 55, day)))
	require.NoError(t, s.Record(ctx, rec("000001", 72, day.Add(24*time.Hour))))
	// an out-of-order older record does not replace the newest
	require.NoError(t, s.Record(ctx, rec("000001", 10, day.Add(-time.Hour))))

	score, ok, err := s.PreviousScore(ctx, "000001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 72.0, score)

	assert.FileExists(t, filepath.Join(dir, "2026-10-13.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "2026-10-14.jsonl"))

	reopened, err := Open(ctx, dir)
	require.NoError(t, err)
	latest, ok := reopened.Latest("000001")
	require.True(t, ok)
	assert.Equal(t, 72.0, latest.Score)
	assert.True(t, latest.CreatedAt.Equal(day.Add(24*time.Hour)))
}

func TestRecordRejectsEmptyFund(t *testing.T) {
	s, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	err = s.Record(context.Background(), types.Recommendation{})
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
}

func TestMalformedLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	content := "not json\n\n{\"fund_id\":\"110022\",\"score\":64.5,\"created_at\":\"2026-10-01T00:00:00Z\"}\n{\"score\":1}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-10-01.jsonl"), []byte(content), 0o644))

	s, err := Open(context.Background(), dir)
	require.NoError(t, err)
	latest, ok := s.Latest("110022")
	require.True(t, ok)
	assert.Equal(t, 64.5, latest.Score)
}

func TestConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)

	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Record(ctx, rec(string(rune('A'+i)), float64(i), now)))
		}(i)
	}
	wg.Wait()

	reopened, err := Open(ctx, s.Dir())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, ok := reopened.Latest(string(rune('A' + i)))
		assert.True(t, ok)
	}
}

func TestCompressOlder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, dir)
	require.NoError(t, err)

	old := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 10, 13, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, rec("000001", 40, old)))
	require.NoError(t, s.Record(ctx, rec("000002", 80, recent)))

	oldPath := filepath.Join(dir, "2026-09-01.jsonl")
	require.NoError(t, os.Chtimes(oldPath, old, old))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "2026-10-13.jsonl"), recent, recent))

	n, err := s.CompressOlder(30, recent)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, filepath.Join(dir, "2026-09-01.jsonl.gz"))

	// compressed history is still readable
	reopened, err := Open(ctx, dir)
	require.NoError(t, err)
	latest, ok := reopened.Latest("000001")
	require.True(t, ok)
	assert.Equal(t, 40.0, latest.Score)

	n, err = s.CompressOlder(0, recent)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCompressOlderMergesIntoExistingArchive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, dir)
	require.NoError(t, err)

	day := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 10, 13, 12, 0, 0, 0, time.UTC)
	live := filepath.Join(dir, "2026-09-01.jsonl")

	require.NoError(t, s.Record(ctx, rec("000001", 40, day)))
	require.NoError(t, os.Chtimes(live, day, day))
	n, err := s.CompressOlder(30, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// a backdated record reopens the same day after it was archived
	require.NoError(t, s.Record(ctx, rec("000002", 65, day.Add(time.Hour))))
	require.NoError(t, os.Chtimes(live, day, day))
	n, err = s.CompressOlder(30, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, live)

	reopened, err := Open(ctx, dir)
	require.NoError(t, err)
	first, ok := reopened.Latest("000001")
	require.True(t, ok)
	assert.Equal(t, 40.0, first.Score)
	second, ok := reopened.Latest("000002")
	require.True(t, ok)
	assert.Equal(t, 65.0, second.Score)
}
