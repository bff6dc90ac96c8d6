package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/salary-survey-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/salary-survey-etl/internal/adapter/frankfurter"
	"github.com/couchcryptid/salary-survey-etl/internal/adapter/sheet"
	"github.com/couchcryptid/salary-survey-etl/internal/apperr"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
	"github.com/couchcryptid/salary-survey-etl/internal/observability"
	"github.com/couchcryptid/salary-survey-etl/internal/pipeline"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type fileExtractor struct {
	path string
	err  error
}

func (m *fileExtractor) Load(_ context.Context) (*domain.Table, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sheet.ReadTable(f)
}

type stubRates struct {
	table   domain.RateTable
	err     error
	symbols []string
}

func (m *stubRates) Latest(_ context.Context, _ string, symbols []string) (domain.RateTable, error) {
	m.symbols = symbols
	return m.table, m.err
}

type captureLoader struct {
	name  string
	rows  int
	cols  []string
	err   error
	calls int
}

func (m *captureLoader) Name() string { return m.name }

func (m *captureLoader) LoadTable(_ context.Context, _ domain.Run, t *domain.Table) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.rows = t.Len()
	m.cols = append([]string(nil), t.Columns...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureRates(t *testing.T) domain.RateTable {
	t.Helper()
	rt, err := frankfurter.ReadSnapshot(filepath.Join("testdata", "rates.json"))
	require.NoError(t, err)
	return rt
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	if m.Gauge != nil {
		return m.GetGauge().GetValue()
	}
	return m.GetCounter().GetValue()
}

func newPipeline(rates domain.RateProvider, loaders ...pipeline.TableLoader) (*pipeline.Pipeline, *observability.Metrics) {
	return newLoggedPipeline(rates, discardLogger(), loaders...)
}

func newLoggedPipeline(rates domain.RateProvider, logger *slog.Logger, loaders ...pipeline.TableLoader) (*pipeline.Pipeline, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(rates, domain.DefaultFallbackRate, logger)
	ext := &fileExtractor{path: filepath.Join("testdata", "survey.csv")}
	return pipeline.New(ext, tfm, loaders, logger, metrics), metrics
}

func rowByJob(t *testing.T, tbl *domain.Table, job string) *domain.Row {
	t.Helper()
	for _, r := range tbl.Rows {
		if r.Get(domain.ColJob).Text() == job {
			return r
		}
	}
	t.Fatalf("no row with job %q", job)
	return nil
}

func num(t *testing.T, r *domain.Row, col string) float64 {
	t.Helper()
	v, ok := r.Get(col).Num()
	require.True(t, ok, "%s should be numeric, got %q", col, r.Get(col).Text())
	return v
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	rates := &stubRates{table: fixtureRates(t)}
	ldr := &captureLoader{name: "capture"}
	p, metrics := newPipeline(rates, ldr)

	res, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, 12, res.RowsLoaded)
	assert.Equal(t, 2, res.DroppedOther)
	assert.Empty(t, res.Unrenamed)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 10, ldr.rows)
	assert.Equal(t, 1, ldr.calls)

	require.NotNil(t, res.Conversion)
	assert.InDelta(t, 3900.0, res.Conversion.USDToTarget, 0)
	assert.False(t, res.Conversion.FallbackUsed)
	assert.Equal(t, []string{"HKD"}, res.Conversion.Unresolved)
	assert.Equal(t, []string{"AUD", "CAD", "EUR", "GBP", "HKD", "NZD", "USD"}, rates.symbols)

	for _, col := range []string{domain.ColFXToCOP, domain.ColSalaryCOP, domain.ColBonusCOP, domain.ColTotalCOP} {
		assert.Contains(t, ldr.cols, col)
	}

	assert.InDelta(t, 12.0, gaugeValue(t, metrics.RowsLoaded), 0)
	assert.InDelta(t, 2.0, gaugeValue(t, metrics.RowsDroppedOther), 0)
	assert.InDelta(t, 1.0, gaugeValue(t, metrics.CurrenciesUnresolved), 0)
	assert.InDelta(t, 10.0, gaugeValue(t, metrics.RowsWritten.WithLabelValues("capture")), 0)
	assert.Equal(t, 7, res.Summary.Converted)
	assert.Equal(t, 5, res.Summary.ByCurrency["USD"])
}

func TestPipeline_Run_RowValues(t *testing.T) {
	p, _ := newPipeline(&stubRates{table: fixtureRates(t)}, &captureLoader{name: "capture"})
	res, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.NoError(t, err)
	tbl := res.Table

	for _, r := range tbl.Rows {
		assert.NotEqual(t, domain.CurrencyOther, r.Get(domain.ColCurrency).Text())
	}

	eng := rowByJob(t, tbl, "Software Engineer")
	assert.Equal(t, "2021-04-27 11:02:10", eng.Get(domain.ColDateCreated).Text())
	assert.InDelta(t, 80000.0, num(t, eng, domain.ColSalary), 0)
	assert.Equal(t, "5000", eng.Get(domain.ColBonus).Text())
	assert.InDelta(t, 3900.0, num(t, eng, domain.ColFXToCOP), 0)
	assert.InDelta(t, 312000000.0, num(t, eng, domain.ColSalaryCOP), 1e-6)
	assert.InDelta(t, 19500000.0, num(t, eng, domain.ColBonusCOP), 1e-6)
	assert.InDelta(t, 331500000.0, num(t, eng, domain.ColTotalCOP), 1e-6)
	assert.Equal(t, "United States", eng.Get(domain.ColCountry).Text())
	assert.Equal(t, "New York", eng.Get(domain.ColCity).Text())

	analyst := rowByJob(t, tbl, "Policy Analyst")
	assert.Equal(t, "0", analyst.Get(domain.ColBonus).Text())
	assert.InDelta(t, 3900/0.79, num(t, analyst, domain.ColFXToCOP), 1e-9)
	assert.InDelta(t, 0.0, num(t, analyst, domain.ColBonusCOP), 0)
	assert.Equal(t, "United Kingdom", analyst.Get(domain.ColCountry).Text())
	assert.Equal(t, "London", analyst.Get(domain.ColCity).Text())

	librarian := rowByJob(t, tbl, "Librarian")
	assert.Equal(t, "CAD", librarian.Get(domain.ColCurrency).Text())
	assert.InDelta(t, 95000.0, num(t, librarian, domain.ColSalary), 0)

	mech := rowByJob(t, tbl, "Mechanical Engineer")
	assert.InDelta(t, (3900/1.52+3900/1.66)/2, num(t, mech, domain.ColFXToCOP), 1e-9)
	assert.Equal(t, "Australia", mech.Get(domain.ColCountry).Text())

	hk := rowByJob(t, tbl, "Analyst")
	assert.True(t, hk.Get(domain.ColFXToCOP).IsNull())
	assert.True(t, hk.Get(domain.ColSalaryCOP).IsNull())
	assert.True(t, hk.Get(domain.ColTotalCOP).IsNull())

	support := rowByJob(t, tbl, "Support Lead")
	assert.True(t, support.Get(domain.ColSalary).IsNull())
	assert.True(t, support.Get(domain.ColSalaryCOP).IsNull())
	assert.True(t, support.Get(domain.ColTotalCOP).IsNull())
	assert.True(t, support.Get(domain.ColCity).IsNull())

	nurse := rowByJob(t, tbl, "Nurse")
	assert.Equal(t, "ATL", nurse.Get(domain.ColCity).Text())
	assert.Equal(t, "United States", nurse.Get(domain.ColCountry).Text())

	paralegal := rowByJob(t, tbl, "Paralegal")
	assert.Equal(t, "Washington, DC", paralegal.Get(domain.ColCity).Text())

	editor := rowByJob(t, tbl, "Editorial Assistant")
	assert.True(t, editor.Get(domain.ColDateCreated).IsNull())
	assert.Equal(t, "Netherlands", editor.Get(domain.ColCountry).Text())
	assert.Equal(t, "AMS", editor.Get(domain.ColCity).Text())

	director := rowByJob(t, tbl, "Marketing Director")
	assert.Equal(t, "1,000", director.Get(domain.ColBonus).Text())
	assert.True(t, director.Get(domain.ColBonusCOP).IsNull())
	assert.True(t, director.Get(domain.ColTotalCOP).IsNull())
	assert.Equal(t, "San Francisco", director.Get(domain.ColCity).Text())
}

func TestPipeline_Run_PreservesSourceOrder(t *testing.T) {
	p, _ := newPipeline(&stubRates{table: fixtureRates(t)}, &captureLoader{name: "capture"})
	res, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.NoError(t, err)

	prev := -1
	for _, r := range res.Table.Rows {
		assert.Greater(t, r.Pos, prev)
		prev = r.Pos
	}
}

func TestPipeline_Run_MissingCOPUsesFallback(t *testing.T) {
	rt := fixtureRates(t)
	delete(rt.Rates, "COP")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	p, metrics := newLoggedPipeline(&stubRates{table: rt}, logger, &captureLoader{name: "capture"})

	res, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.NoError(t, err)

	require.NotNil(t, res.Conversion)
	assert.True(t, res.Conversion.FallbackUsed)
	assert.InDelta(t, 3661.0, res.Conversion.USDToTarget, 0)
	assert.InDelta(t, 1.0, gaugeValue(t, metrics.FXFallbackUsed), 0)

	eng := rowByJob(t, res.Table, "Software Engineer")
	assert.InDelta(t, 3661.0, num(t, eng, domain.ColFXToCOP), 0)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "COP rate missing from rate service, using fallback")
	assert.Contains(t, logs.String(), "usd_to_cop=3661")
}

func TestPipeline_Run_RateServiceFailureSkipsConversion(t *testing.T) {
	ldr := &captureLoader{name: "capture"}
	p, metrics := newPipeline(&stubRates{err: errors.New("frankfurter API error: status 500")}, ldr)

	res, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{pipeline.StageConvert}, res.Skipped)
	assert.Nil(t, res.Conversion)
	assert.Equal(t, 10, ldr.rows)
	assert.NotContains(t, ldr.cols, domain.ColFXToCOP)
	assert.NotContains(t, ldr.cols, domain.ColTotalCOP)
	assert.InDelta(t, 1.0, gaugeValue(t, metrics.StageSkipped.WithLabelValues(pipeline.StageConvert)), 0)

	// Geographic normalization still runs after the skipped stage.
	eng := rowByJob(t, res.Table, "Software Engineer")
	assert.Equal(t, "New York", eng.Get(domain.ColCity).Text())
}

func TestPipeline_Run_LoadFailureIsFatal(t *testing.T) {
	ldr := &captureLoader{name: "capture"}
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(&stubRates{}, 0, discardLogger())
	p := pipeline.New(&fileExtractor{err: errors.New("connection refused")}, tfm, []pipeline.TableLoader{ldr}, discardLogger(), metrics)

	_, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindFatal))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, ldr.calls)
}

func TestPipeline_Run_WriteFailureIsFatal(t *testing.T) {
	failing := &captureLoader{name: "csv", err: errors.New("disk full")}
	after := &captureLoader{name: "kafka"}
	p, _ := newPipeline(&stubRates{table: fixtureRates(t)}, failing, after)

	_, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindFatal))
	assert.Contains(t, err.Error(), "write csv")
	assert.Equal(t, 0, after.calls)
}

func TestPipeline_Run_UnrenamedColumnsAreKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.csv")
	data, err := os.ReadFile(filepath.Join("testdata", "survey.csv"))
	require.NoError(t, err)
	// Simulate the form rewording one question.
	reworded := []byte("Submitted at" + string(data[len("Timestamp"):]))
	require.NoError(t, os.WriteFile(path, reworded, 0o644))

	ldr := &captureLoader{name: "capture"}
	tfm := pipeline.NewTransformer(&stubRates{table: fixtureRates(t)}, 0, discardLogger())
	p := pipeline.New(&fileExtractor{path: path}, tfm, []pipeline.TableLoader{ldr}, discardLogger(), observability.NewMetricsForTesting())

	res, err := p.Run(context.Background(), domain.Run{ID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp"}, res.Unrenamed)
	assert.Contains(t, ldr.cols, "Submitted at")
	assert.NotContains(t, ldr.cols, domain.ColDateCreated)
}

func TestPipeline_Run_Idempotent(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join("testdata", "rates.json")

	run := func(out string) []byte {
		rates := frankfurter.NewSnapshotProvider(nil, snapshot, discardLogger())
		w := csvfile.NewWriter(out, discardLogger())
		p, _ := newPipeline(rates, w)
		_, err := p.Run(context.Background(), domain.NewRun())
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	first := run(filepath.Join(dir, "first.csv"))
	second := run(filepath.Join(dir, "second.csv"))
	assert.Equal(t, first, second)
}
