package history

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fund-advisor/internal/logger"
	"fund-advisor/internal/types"
)

const (
	liveExt       = ".jsonl"
	compressedExt = ".jsonl.gz"
)

// Store keeps every published recommendation as one JSON line in a daily
// file and indexes the newest one per fund in memory.
type Store struct {
	dir    string
	mu     sync.Mutex
	latest map[string]types.Recommendation
}

// Open loads the history under dir, creating it if needed. Unreadable lines
// are skipped.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	s := &Store{dir: dir, latest: make(map[string]types.Recommendation)}

	files, err := s.files()
	if err != nil {
		return nil, err
	}
	for _, p := range files {
		if err := s.load(ctx, p); err != nil {
			return nil, fmt.Errorf("load %s: %w", filepath.Base(p), err)
		}
	}
	return s, nil
}

func (s *Store) Dir() string { return s.dir }

// files lists history files oldest first.
func (s *Store) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, liveExt) || strings.HasSuffix(name, compressedExt) {
			out = append(out, filepath.Join(s.dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) load(ctx context.Context, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(p, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var rec types.Recommendation
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil || rec.FundID == "" {
			logger.Warn(ctx, "Skipping malformed history line", "file", filepath.Base(p), "line", line)
			continue
		}
		s.index(rec)
	}
	return sc.Err()
}

func (s *Store) index(rec types.Recommendation) {
	if prev, ok := s.latest[rec.FundID]; ok && prev.CreatedAt.After(rec.CreatedAt) {
		return
	}
	s.latest[rec.FundID] = rec
}

func (s *Store) dailyPath(t time.Time) string {
	return filepath.Join(s.dir, t.UTC().Format("2006-01-02")+liveExt)
}

// Record appends rec to the file of its creation day.
func (s *Store) Record(_ context.Context, rec types.Recommendation) error {
	if rec.FundID == "" {
		return types.Invalid("history record without fund id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.dailyPath(rec.CreatedAt), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, string(b)); err != nil {
		return err
	}
	s.index(rec)
	return nil
}

// Latest returns the newest recommendation recorded for the fund.
func (s *Store) Latest(fundID string) (types.Recommendation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.latest[fundID]
	return rec, ok
}

// PreviousScore returns the composite score of the fund's newest record.
func (s *Store) PreviousScore(_ context.Context, fundID string) (float64, bool, error) {
	rec, ok := s.Latest(fundID)
	if !ok {
		return 0, false, nil
	}
	return rec.Score, true, nil
}

// CompressOlder gzips live files last modified more than retentionDays ago
// and reports how many it compressed. A day that already has a compressed
// file gets the live lines appended to it as a further gzip member.
func (s *Store) CompressOlder(retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return 0, err
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	n := 0
	for _, p := range files {
		if !strings.HasSuffix(p, liveExt) {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		gz := strings.TrimSuffix(p, liveExt) + compressedExt
		if err := compress(p, gz); err != nil {
			return n, fmt.Errorf("compress %s: %w", filepath.Base(p), err)
		}
		n++
	}
	return n, nil
}

// compress appends src to dst as one gzip member and removes src. On
// failure dst is restored to its previous length.
func compress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	var prevSize int64
	existed := false
	if info, err := os.Stat(dst); err == nil {
		prevSize, existed = info.Size(), true
	}
	rollback := func() {
		if existed {
			_ = os.Truncate(dst, prevSize)
		} else {
			_ = os.Remove(dst)
		}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		rollback()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		rollback()
		return err
	}
	if err := out.Close(); err != nil {
		rollback()
		return err
	}
	return os.Remove(src)
}
