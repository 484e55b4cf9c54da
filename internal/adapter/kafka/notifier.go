package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-front-grid/internal/config"
	"github.com/couchcryptid/storm-front-grid/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Notifier publishes step summaries to a Kafka topic.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured summary topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify serializes and publishes one step summary.
func (n *Notifier) Notify(ctx context.Context, summary domain.StepSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish step %d: %w", summary.TimeIndex, err)
	}
	n.logger.Debug("step summary published", "step", summary.TimeIndex, "topic", n.writer.Topic)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// messageKey is the key under which a step's summary is published.
func messageKey(timeIndex int) string {
	return "step-" + strconv.Itoa(timeIndex)
}

// serializeToMessage marshals a StepSummary into a Kafka message.
func serializeToMessage(summary domain.StepSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize step summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(summary.TimeIndex)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "time_index", Value: []byte(strconv.Itoa(summary.TimeIndex))},
			{Key: "processed_at", Value: []byte(summary.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

// ParseMessage decodes a published step summary.
func ParseMessage(msg kafkago.Message) (domain.StepSummary, error) {
	var s domain.StepSummary
	if err := json.Unmarshal(msg.Value, &s); err != nil {
		return domain.StepSummary{}, fmt.Errorf("parse step summary %q: %w", msg.Key, err)
	}
	return s, nil
}
