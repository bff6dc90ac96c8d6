package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

// Writer serializes the modeled table to a CSV file.
// It implements pipeline.TableLoader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a CSV writer for path. An existing file is replaced.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

func (w *Writer) Name() string { return "csv" }

// Path returns the destination file.
func (w *Writer) Path() string { return w.path }

// LoadTable writes the header and every row. The file is written to a
// temporary sibling first and renamed into place, so a failed run never
// leaves a truncated output behind.
func (w *Writer) LoadTable(_ context.Context, _ domain.Run, t *domain.Table) error {
	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(t.Records()); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}

	w.logger.Debug("csv written", "path", w.path, "rows", t.Len())
	return nil
}
