package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name run metrics are grouped under.
const PushJob = "salary_survey_etl"

// Push sends the run's metrics to a Pushgateway, grouped by run_id so
// consecutive runs do not overwrite each other.
func Push(ctx context.Context, url, runID string, m *Metrics) error {
	g := m.Gatherer()
	if g == nil {
		return errors.New("metrics are not registered")
	}
	err := push.New(url, PushJob).
		Gatherer(g).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
