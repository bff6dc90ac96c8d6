package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader fetches the survey responses from a spreadsheet CSV export.
type Loader struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a loader for the given export URL.
func NewLoader(url string, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Load downloads the export and parses it into a response table.
func (l *Loader) Load(ctx context.Context) (*domain.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: status %d", resp.StatusCode)
	}

	t, err := ReadTable(resp.Body)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("sheet loaded", "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

// ReadTable parses CSV content with a header row into a table. Short records
// are padded with nulls; a record longer than the header is malformed.
func ReadTable(r io.Reader) (*domain.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("read csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("read csv: line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}
		records = append(records, rec)
	}

	return domain.NewTable(header, records), nil
}
