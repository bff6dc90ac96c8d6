package frankfurter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

// SnapshotProvider wraps a RateProvider with a frozen response file. When the
// file exists its rates are replayed without calling inner; otherwise inner is
// called once and its response recorded to the file.
type SnapshotProvider struct {
	inner  domain.RateProvider
	path   string
	logger *slog.Logger
}

// NewSnapshotProvider creates a snapshot decorator around a rate provider.
func NewSnapshotProvider(inner domain.RateProvider, path string, logger *slog.Logger) *SnapshotProvider {
	return &SnapshotProvider{inner: inner, path: path, logger: logger}
}

func (s *SnapshotProvider) Latest(ctx context.Context, base string, symbols []string) (domain.RateTable, error) {
	rt, err := ReadSnapshot(s.path)
	switch {
	case err == nil:
		if rt.Base != "" && rt.Base != base {
			return domain.RateTable{}, fmt.Errorf("snapshot %s has base %s, want %s", s.path, rt.Base, base)
		}
		s.logger.Info("replaying rate snapshot", "path", s.path, "date", rt.Date)
		return rt, nil
	case !errors.Is(err, fs.ErrNotExist):
		return domain.RateTable{}, err
	}

	rt, err = s.inner.Latest(ctx, base, symbols)
	if err != nil {
		return rt, err
	}
	if rt.Date == "" {
		rt.Date = domain.Now().UTC().Format("2006-01-02")
	}
	if err := WriteSnapshot(s.path, rt); err != nil {
		// The live rates are still usable for this run.
		s.logger.Warn("record rate snapshot failed", "path", s.path, "error", err)
		return rt, nil
	}
	s.logger.Info("recorded rate snapshot", "path", s.path, "date", rt.Date)
	return rt, nil
}

// ReadSnapshot loads a rate table previously written by WriteSnapshot.
func ReadSnapshot(path string) (domain.RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RateTable{}, err
	}
	var rt domain.RateTable
	if err := json.Unmarshal(data, &rt); err != nil {
		return domain.RateTable{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if rt.Rates == nil {
		rt.Rates = map[string]float64{}
	}
	return rt, nil
}

// WriteSnapshot writes rt as indented JSON, creating parent directories.
func WriteSnapshot(path string, rt domain.RateTable) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
