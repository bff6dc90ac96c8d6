package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/salary-survey-etl/internal/apperr"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
	"github.com/couchcryptid/salary-survey-etl/internal/observability"
	"github.com/couchcryptid/salary-survey-etl/internal/report"
)

// Stage names used in logs and metric labels.
const (
	StageLoad    = "load"
	StageRename  = "rename"
	StageClean   = "clean"
	StageConvert = "convert"
	StageGeo     = "geo"
	StageWrite   = "write"
)

// TableExtractor reads the full response table from the source.
type TableExtractor interface {
	Load(ctx context.Context) (*domain.Table, error)
}

// TableLoader writes the modeled table to a destination.
type TableLoader interface {
	Name() string
	LoadTable(ctx context.Context, run domain.Run, t *domain.Table) error
}

// Result describes a completed run.
type Result struct {
	Run          domain.Run
	Table        *domain.Table
	RowsLoaded   int
	DroppedOther int
	Unrenamed    []string
	// Conversion is nil when the conversion stage was skipped.
	Conversion *Conversion
	Skipped    []string
	Summary    report.Summary
}

// Pipeline runs the survey stages once, in order, over a single table.
type Pipeline struct {
	extractor   TableExtractor
	transformer *SurveyTransformer
	loaders     []TableLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline. The first loader is the primary output; every
// loader must succeed for the run to succeed.
func New(e TableExtractor, t *SurveyTransformer, loaders []TableLoader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes load, rename, clean, convert, geo, and write. Load and write
// failures are fatal; a conversion failure skips that stage only.
func (p *Pipeline) Run(ctx context.Context, run domain.Run) (*Result, error) {
	p.logger.Info("pipeline started", "started_at", run.StartedAt)
	res := &Result{Run: run}

	var t *domain.Table
	err := p.stage(StageLoad, func() error {
		var err error
		t, err = p.extractor.Load(ctx)
		return err
	})
	if err != nil {
		return nil, apperr.Fatal("load survey", err)
	}
	res.Table = t
	res.RowsLoaded = t.Len()
	p.metrics.RowsLoaded.Set(float64(res.RowsLoaded))
	p.logger.Info("survey loaded", "rows", res.RowsLoaded, "columns", len(t.Columns))

	_ = p.stage(StageRename, func() error {
		res.Unrenamed = p.transformer.Rename(t)
		return nil
	})

	_ = p.stage(StageClean, func() error {
		res.DroppedOther = p.transformer.Clean(t)
		return nil
	})
	p.metrics.RowsDroppedOther.Set(float64(res.DroppedOther))

	err = p.stage(StageConvert, func() error {
		conv, err := p.transformer.Convert(ctx, t)
		if err != nil {
			return err
		}
		res.Conversion = &conv
		return nil
	})
	switch {
	case err == nil:
		p.metrics.CurrenciesUnresolved.Set(float64(len(res.Conversion.Unresolved)))
		if res.Conversion.FallbackUsed {
			p.metrics.FXFallbackUsed.Set(1)
		}
	case apperr.IsKind(err, apperr.KindStageSkipped):
		p.logger.Error("exchange rate lookup failed, conversion skipped", "error", err)
		p.metrics.StageSkipped.WithLabelValues(StageConvert).Inc()
		res.Skipped = append(res.Skipped, StageConvert)
	default:
		return nil, err
	}

	_ = p.stage(StageGeo, func() error {
		p.transformer.NormalizeGeo(t)
		return nil
	})

	for _, l := range p.loaders {
		err := p.stage(StageWrite, func() error {
			return l.LoadTable(ctx, run, t)
		})
		if err != nil {
			return nil, apperr.Fatal("write "+l.Name(), err)
		}
		p.metrics.RowsWritten.WithLabelValues(l.Name()).Add(float64(t.Len()))
		p.logger.Info("output written", "sink", l.Name(), "rows", t.Len())
	}

	res.Summary = report.Summarize(t)
	p.logger.Info("pipeline finished",
		"summary", res.Summary,
		"dropped_other", res.DroppedOther,
		"skipped", res.Skipped,
	)
	return res, nil
}

// stage runs fn and records its duration under name.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}
