package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/salary-survey-etl/internal/config"
	"github.com/couchcryptid/salary-survey-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes modeled rows to a Kafka topic.
// It implements pipeline.TableLoader.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, batchSize: defaultBatchSize, logger: logger}
}

const defaultBatchSize = 500

func (w *Writer) Name() string { return "kafka" }

// LoadTable serializes every row and publishes them in batches. Keys are
// stable across runs, so consumers can treat a re-run as an upsert.
func (w *Writer) LoadTable(ctx context.Context, run domain.Run, t *domain.Table) error {
	if t.Len() == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, w.batchSize)
	for _, r := range t.Rows {
		msg, err := serializeToMessage(run, t.Columns, r)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		if len(msgs) == w.batchSize {
			if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
				return fmt.Errorf("publish rows: %w", err)
			}
			msgs = msgs[:0]
		}
	}
	if len(msgs) > 0 {
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish rows: %w", err)
		}
	}
	w.logger.Debug("rows published", "rows", t.Len())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one row, restricted to the table's columns,
// into a Kafka message.
func serializeToMessage(run domain.Run, columns []string, r *domain.Row) (kafkago.Message, error) {
	payload := make(map[string]domain.Value, len(columns))
	for _, c := range columns {
		payload[c] = r.Get(c)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %d: %w", r.Pos, err)
	}
	return kafkago.Message{
		Key:   []byte(domain.RowKey(r)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(run.ID)},
			{Key: "processed_at", Value: []byte(run.StartedAt.Format(time.RFC3339))},
		},
	}, nil
}
