// Command genmock runs the survey pipeline over a local survey CSV and a
// frozen rates JSON to regenerate the modeled CSV fixture. A fixed clock and
// the frozen rates make the output reproducible byte for byte.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -survey internal/pipeline/testdata/survey.csv \
//	  -rates internal/pipeline/testdata/rates.json \
//	  -out internal/pipeline/testdata/modeled.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/salary-survey-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/salary-survey-etl/internal/adapter/frankfurter"
	"github.com/couchcryptid/salary-survey-etl/internal/adapter/sheet"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
	"github.com/couchcryptid/salary-survey-etl/internal/observability"
	"github.com/couchcryptid/salary-survey-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

var fixtureTime = time.Date(2024, time.May, 10, 6, 0, 0, 0, time.UTC)

func main() {
	survey := flag.String("survey", "", "path to a survey CSV export")
	rates := flag.String("rates", "", "path to a frozen rates JSON")
	out := flag.String("out", "", "output path for the modeled CSV fixture")
	fallback := flag.Float64("fallback", domain.DefaultFallbackRate, "USD to COP rate when the rates file has no COP")
	flag.Parse()

	if *survey == "" || *rates == "" || *out == "" {
		flag.Usage()
		log.Fatal("missing required flags: -survey, -rates, -out")
	}

	if err := run(*survey, *rates, *out, *fallback); err != nil {
		log.Fatal(err)
	}
}

// fileExtractor loads the survey from a local CSV instead of the sheet export.
type fileExtractor struct{ path string }

func (e fileExtractor) Load(_ context.Context) (*domain.Table, error) {
	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("open survey: %w", err)
	}
	defer f.Close()
	return sheet.ReadTable(f)
}

// frozenRates replays a rates file and never touches the network.
type frozenRates struct{ table domain.RateTable }

func (r frozenRates) Latest(_ context.Context, _ string, _ []string) (domain.RateTable, error) {
	return r.table, nil
}

func run(surveyPath, ratesPath, outPath string, fallback float64) error {
	// Set a fixed clock for reproducible run metadata.
	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	rt, err := frankfurter.ReadSnapshot(ratesPath)
	if err != nil {
		return fmt.Errorf("reading rates: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(
		fileExtractor{path: surveyPath},
		pipeline.NewTransformer(frozenRates{table: rt}, fallback, logger),
		[]pipeline.TableLoader{csvfile.NewWriter(outPath, logger)},
		logger,
		observability.NewMetricsForTesting(),
	)

	res, err := p.Run(context.Background(), domain.NewRun())
	if err != nil {
		return err
	}
	log.Printf("wrote modeled fixture: %s", outPath)

	printStats(res)
	return nil
}

func printStats(res *pipeline.Result) {
	s := res.Summary
	log.Printf("rows: %d loaded, %d dropped as OTHER, %d written", res.RowsLoaded, res.DroppedOther, s.Rows)
	if res.Conversion != nil {
		log.Printf("usd_to_cop: %.2f (fallback: %t, rate date: %s)", res.Conversion.USDToTarget, res.Conversion.FallbackUsed, res.Conversion.RateDate)
		if len(res.Conversion.Unresolved) > 0 {
			log.Printf("unresolved currencies: %v", res.Conversion.Unresolved)
		}
	}
	log.Printf("converted: %d, mean %.0f COP, median %.0f COP, p90 %.0f COP", s.Converted, s.Mean, s.Median, s.P90)
	for _, c := range s.TopCurrencies(5) {
		log.Printf("  %-8s %d", c, s.ByCurrency[c])
	}
}
