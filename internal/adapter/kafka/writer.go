package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/config"
	"github.com/couchcryptid/hazard-etl/internal/domain"
	"github.com/paulmach/orb/geojson"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per feature to a Kafka topic, keyed by feature
// id so a compacted topic keeps the latest state of every area or callsign.
// It implements pipeline.Emitter.
type Writer struct {
	writer  messageWriter
	variant string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, variant: cfg.Variant, logger: logger}
}

// Emit serializes every feature of fc and publishes them in a single
// WriteMessages call. An empty collection produces no messages.
func (w *Writer) Emit(ctx context.Context, fc *geojson.FeatureCollection) error {
	if len(fc.Features) == 0 {
		w.logger.Debug("no features to publish")
		return nil
	}

	emittedAt := domain.Now()
	runID := domain.RunID(ctx)
	msgs := make([]kafkago.Message, len(fc.Features))
	for i, f := range fc.Features {
		msg, err := serializeToMessage(f, w.variant, runID, emittedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish features: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a feature into a Kafka message.
func serializeToMessage(f *geojson.Feature, variant, runID string, emittedAt time.Time) (kafkago.Message, error) {
	data, err := f.MarshalJSON()
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature %v: %w", f.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprint(f.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "variant", Value: []byte(variant)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "emitted_at", Value: []byte(emittedAt.Format(time.RFC3339))},
		},
	}, nil
}
