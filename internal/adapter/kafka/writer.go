package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/config"
	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces township plat snapshots to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple plat snapshots to the sink
// topic in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, snaps []domain.PlatSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snaps))
	for i := range snaps {
		msg, err := serializeToMessage(snaps[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PlatSnapshot into a Kafka message keyed by
// the canonical twprge, so successive snapshots of one township land on
// the same partition in order.
func serializeToMessage(snap domain.PlatSnapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize plat snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.TwpRge),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "twprge", Value: []byte(snap.TwpRge)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
