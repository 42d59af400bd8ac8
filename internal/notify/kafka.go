package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kmoresby/stock-watchlist/internal/models"
)

// KafkaSink publishes engine events to a Kafka topic for delivery to
// subscribers. The engines treat publishes as fire-and-forget; a failed
// write is the caller's to log, never to retry.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaSink creates a sink writing to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaSink{
		writer: writer,
		topic:  topic,
	}
}

// PublishAlertTriggered publishes a triggered-alert event keyed by symbol.
func (s *KafkaSink) PublishAlertTriggered(ctx context.Context, event models.AlertTriggeredEvent) error {
	return s.publish(ctx, event.Symbol, event)
}

// PublishWatchlistChanged publishes the new tracked symbol set.
func (s *KafkaSink) PublishWatchlistChanged(ctx context.Context, event models.WatchlistChangedEvent) error {
	return s.publish(ctx, models.EventWatchlistChanged, event)
}

func (s *KafkaSink) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the underlying Kafka writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
