package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/config"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes region snapshots to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
// Messages are keyed by region, so the hash balancer keeps each region on
// one partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes all snapshots of one poll cycle in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, snapshots []domain.RegionSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshots))
	for i := range snapshots {
		msg, err := serializeToMessage(snapshots[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d snapshots: %w", len(msgs), err)
	}
	w.logger.Debug("snapshots published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionSnapshot into a Kafka message.
func serializeToMessage(s domain.RegionSnapshot) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(s.RegionID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(s.Activity.Status)},
			{Key: "checked_at", Value: []byte(s.Activity.CheckedAt.Format(time.RFC3339))},
			{Key: "cycle_id", Value: []byte(s.CycleID)},
		},
	}, nil
}
