package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salary_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for a batch run.
type Metrics struct {
	RowsLoaded           prometheus.Gauge
	RowsDroppedOther     prometheus.Gauge
	RowsWritten          *prometheus.CounterVec // labels: sink={csv,kafka}
	CurrenciesUnresolved prometheus.Gauge
	FXFallbackUsed       prometheus.Gauge

	StageSkipped  *prometheus.CounterVec   // labels: stage
	StageDuration *prometheus.HistogramVec // labels: stage

	// Rate service metrics.
	RateRequestDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates all run metrics on a dedicated registry so they can be
// pushed as one group at the end of the run.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them anywhere, so
// tests can build as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Gatherer returns the registry backing m, or nil for unregistered metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry == nil {
		return nil
	}
	return m.registry
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_loaded",
			Help:      "Rows read from the survey source.",
		}),
		RowsDroppedOther: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_dropped_other",
			Help:      "Rows removed because their currency was OTHER.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written by each output sink.",
		}, []string{"sink"}),
		CurrenciesUnresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "currencies_unresolved",
			Help:      "Distinct currency codes left without a conversion factor.",
		}),
		FXFallbackUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fx_fallback_used",
			Help:      "1 when the USD to COP rate came from the fallback constant.",
		}),
		StageSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_skipped_total",
			Help:      "Pipeline stages abandoned after a non-fatal failure.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		RateRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_request_duration_seconds",
			Help:      "Exchange rate service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsLoaded,
		m.RowsDroppedOther,
		m.RowsWritten,
		m.CurrenciesUnresolved,
		m.FXFallbackUsed,
		m.StageSkipped,
		m.StageDuration,
		m.RateRequestDuration,
	}
}
