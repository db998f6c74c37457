package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fund-advisor/internal/types"
)

// FileProvider reads one <fund_id>.json NAVHistory per fund from a directory.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Fetch classifies a missing or undecodable file as permanent and any other
// I/O failure as transient.
func (p *FileProvider) Fetch(ctx context.Context, fundID string) (types.FundSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.FundSnapshot{}, err
	}
	if fundID == "" || strings.ContainsAny(fundID, `/\`) || fundID == "." || fundID == ".." {
		return types.FundSnapshot{}, types.Invalid("fund id %q is not a valid file name", fundID)
	}

	b, err := os.ReadFile(filepath.Join(p.dir, fundID+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.FundSnapshot{}, types.Permanent(fundID, fmt.Errorf("no data file: %w", err))
		}
		return types.FundSnapshot{}, types.Transient(fundID, err)
	}

	var h NAVHistory
	if err := json.Unmarshal(b, &h); err != nil {
		return types.FundSnapshot{}, types.Permanent(fundID, fmt.Errorf("decode data file: %w", err))
	}
	if h.FundID == "" {
		h.FundID = fundID
	}
	if h.FundID != fundID {
		return types.FundSnapshot{}, types.Permanent(fundID, fmt.Errorf("data file holds fund %s", h.FundID))
	}
	return h.Snapshot()
}

// WriteHistory stores h where FileProvider will find it.
func WriteHistory(dir string, h NAVHistory) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, h.FundID+".json"), b, 0o644)
}
