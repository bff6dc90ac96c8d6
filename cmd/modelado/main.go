// Command modelado downloads the salary survey, cleans it, converts every
// compensation figure to Colombian pesos, and writes ask_a_manager_modelado.csv.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/salary-survey-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/salary-survey-etl/internal/adapter/frankfurter"
	kafkaadapter "github.com/couchcryptid/salary-survey-etl/internal/adapter/kafka"
	"github.com/couchcryptid/salary-survey-etl/internal/adapter/sheet"
	"github.com/couchcryptid/salary-survey-etl/internal/apperr"
	"github.com/couchcryptid/salary-survey-etl/internal/config"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
	"github.com/couchcryptid/salary-survey-etl/internal/observability"
	"github.com/couchcryptid/salary-survey-etl/internal/pipeline"
)

func main() {
	// A missing .env is normal; variables already set always win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	os.Exit(run(cfg, logger))
}

func run(cfg *config.Config, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	r := domain.NewRun()
	logger = logger.With("run_id", r.ID)

	var rates domain.RateProvider = frankfurter.NewClient(cfg.RatesURL, cfg.HTTPTimeout, metrics, logger)
	if cfg.RatesSnapshot != "" {
		rates = frankfurter.NewSnapshotProvider(rates, cfg.RatesSnapshot, logger)
	}

	loaders := []pipeline.TableLoader{csvfile.NewWriter(cfg.OutputPath, logger)}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(
		sheet.NewLoader(cfg.SourceURL, cfg.HTTPTimeout, logger),
		pipeline.NewTransformer(rates, cfg.FallbackRate, logger),
		loaders,
		logger,
		metrics,
	)

	res, err := p.Run(ctx, r)
	pushMetrics(cfg, r, metrics, logger)
	if err != nil {
		logAppError(logger, err)
		return 1
	}

	logger.Info("finished writing output", "path", cfg.OutputPath, "rows", res.Table.Len())
	return 0
}

func pushMetrics(cfg *config.Config, r domain.Run, metrics *observability.Metrics, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := observability.Push(ctx, cfg.PushgatewayURL, r.ID, metrics); err != nil {
		logger.Warn("metrics push failed", "error", err)
	}
}

func logAppError(logger *slog.Logger, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		logger.Error("pipeline failed", "kind", e.Kind, "op", e.Op, "error", e.Err)
		logger.Debug("failure stack", "stack", string(e.Stack))
		return
	}
	logger.Error("pipeline failed", "error", err)
}
