package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/salary-survey-etl/internal/domain"
	"github.com/couchcryptid/salary-survey-etl/internal/observability"
)

// DefaultURL is the public Frankfurter latest-rates endpoint.
const DefaultURL = "https://api.frankfurter.app/latest"

// Client implements domain.RateProvider using the Frankfurter API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Frankfurter rates client for the given endpoint.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Latest fetches the latest rates of symbols quoted against base. A non-200
// response is returned as an error carrying the status and body.
func (c *Client) Latest(ctx context.Context, base string, symbols []string) (domain.RateTable, error) {
	params := url.Values{"from": {base}}
	if len(symbols) > 0 {
		params.Set("to", strings.Join(symbols, ","))
	}
	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RateRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("rates request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.RateTable{}, fmt.Errorf("frankfurter API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rt domain.RateTable
	if err := json.NewDecoder(resp.Body).Decode(&rt); err != nil {
		return domain.RateTable{}, fmt.Errorf("decode response: %w", err)
	}
	if rt.Rates == nil {
		rt.Rates = map[string]float64{}
	}

	c.logger.Debug("rates fetched", "base", rt.Base, "date", rt.Date, "symbols", len(rt.Rates))
	return rt, nil
}
