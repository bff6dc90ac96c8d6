package config

import (
	"errors"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/salary-survey-etl/internal/adapter/frankfurter"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
)

// DefaultSourceURL is the CSV export of the published survey responses.
const DefaultSourceURL = "https://docs.google.com/spreadsheets/d/1IPS5dBSGtwYVbjsfbaMCYIWnOuRmJcbequohNxCyGVw/export?format=csv&gid=1625408792"

// Config holds all job settings, populated from environment variables.
type Config struct {
	SourceURL   string
	RatesURL    string
	OutputPath  string
	HTTPTimeout time.Duration

	// FallbackRate is the USD->COP rate used when the rate service omits COP.
	FallbackRate float64
	// RatesSnapshot, when set, is replayed instead of calling the rate service
	// if the file exists, and recorded otherwise.
	RatesSnapshot string

	LogLevel  string
	LogFormat string

	// Optional Kafka sink.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	PushgatewayURL string
}

// Load reads configuration from environment variables, applying the values of
// Defaults where unset.
func Load() (*Config, error) {
	d := Defaults()

	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("HTTP_TIMEOUT", d.HTTPTimeout.String()))
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid HTTP_TIMEOUT")
	}

	fallback, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FALLBACK_USD_TO_COP", strconv.FormatFloat(d.FallbackRate, 'f', -1, 64)), 64)
	if err != nil || fallback <= 0 {
		return nil, errors.New("invalid FALLBACK_USD_TO_COP")
	}

	var brokers []string
	if s := sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		SourceURL:      sharedcfg.EnvOrDefault("SOURCE_URL", d.SourceURL),
		RatesURL:       sharedcfg.EnvOrDefault("RATES_URL", d.RatesURL),
		OutputPath:     sharedcfg.EnvOrDefault("OUTPUT_PATH", d.OutputPath),
		HTTPTimeout:    timeout,
		FallbackRate:   fallback,
		RatesSnapshot:  sharedcfg.EnvOrDefault("RATES_SNAPSHOT", ""),
		LogLevel:       sharedcfg.EnvOrDefault("LOG_LEVEL", d.LogLevel),
		LogFormat:      sharedcfg.EnvOrDefault("LOG_FORMAT", d.LogFormat),
		KafkaBrokers:   brokers,
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", d.KafkaTopic),
		KafkaEnabled:   len(brokers) > 0,
		PushgatewayURL: sharedcfg.EnvOrDefault("PUSHGATEWAY_URL", ""),
	}

	if cfg.SourceURL == "" {
		return nil, errors.New("SOURCE_URL is required")
	}
	if cfg.RatesURL == "" {
		return nil, errors.New("RATES_URL is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

// Defaults returns the configuration of a run with no environment overrides.
// Tools that drive the pipeline directly start from it.
func Defaults() *Config {
	return &Config{
		SourceURL:    DefaultSourceURL,
		RatesURL:     frankfurter.DefaultURL,
		OutputPath:   "ask_a_manager_modelado.csv",
		HTTPTimeout:  60 * time.Second,
		FallbackRate: domain.DefaultFallbackRate,
		LogLevel:     "info",
		LogFormat:    "text",
		KafkaTopic:   "salary-survey-modeled",
	}
}
