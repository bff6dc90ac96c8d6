// Package report computes end-of-run statistics over the modeled table.
package report

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

// Summary describes total compensation in the target currency.
type Summary struct {
	Rows       int
	Converted  int
	Mean       float64
	Median     float64
	P90        float64
	ByCurrency map[string]int
}

// Summarize computes statistics of total_compensacion_cop over rows where it
// is present, plus the number of rows per currency. Statistics are zero when
// no row was converted.
func Summarize(t *domain.Table) Summary {
	s := Summary{Rows: t.Len(), ByCurrency: make(map[string]int)}

	var totals []float64
	for _, r := range t.Rows {
		s.ByCurrency[r.Get(domain.ColCurrency).Text()]++
		if v, ok := r.Get(domain.ColTotalCOP).Num(); ok {
			totals = append(totals, v)
		}
	}

	s.Converted = len(totals)
	if s.Converted == 0 {
		return s
	}

	sort.Float64s(totals)
	s.Mean = stat.Mean(totals, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, totals, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, totals, nil)
	return s
}

// LogValue renders the summary as a log group.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rows", s.Rows),
		slog.Int("converted", s.Converted),
		slog.Float64("mean_cop", s.Mean),
		slog.Float64("median_cop", s.Median),
		slog.Float64("p90_cop", s.P90),
		slog.Int("currencies", len(s.ByCurrency)),
	)
}

// TopCurrencies returns up to n currencies ordered by row count, ties broken
// alphabetically.
func (s Summary) TopCurrencies(n int) []string {
	codes := make([]string, 0, len(s.ByCurrency))
	for c := range s.ByCurrency {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		if s.ByCurrency[codes[i]] != s.ByCurrency[codes[j]] {
			return s.ByCurrency[codes[i]] > s.ByCurrency[codes[j]]
		}
		return codes[i] < codes[j]
	})
	if len(codes) > n {
		codes = codes[:n]
	}
	return codes
}
