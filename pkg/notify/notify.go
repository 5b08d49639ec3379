// pkg/notify/notify.go

// Package notify announces finished ingestion batches to dashboard clients.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventDataUpdated is the type of the event published after a successful batch
const EventDataUpdated = "data_updated"

// Event describes a successful batch
type Event struct {
	Type      string    `json:"type"`
	BatchID   string    `json:"batchId"`
	UpdatedAt time.Time `json:"updatedAt"`
	RowCount  int64     `json:"rowCount"`
}

// Notifier publishes data-updated events
type Notifier interface {
	DataUpdated(ctx context.Context, ev Event) error
}

// Noop discards every event
type Noop struct{}

// DataUpdated does nothing
func (Noop) DataUpdated(context.Context, Event) error { return nil }

// MessageWriter is the subset of *kafka.Writer the notifier needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events as JSON messages keyed by batch id
type KafkaNotifier struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaNotifier creates a notifier writing to topic on brokers
func NewKafkaNotifier(brokers []string, topic string, logger *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	return NewKafkaNotifierWithWriter(writer, logger)
}

// NewKafkaNotifierWithWriter wraps an existing writer
func NewKafkaNotifierWithWriter(writer MessageWriter, logger *zap.Logger) *KafkaNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaNotifier{writer: writer, logger: logger.Named("notifier")}
}

// DataUpdated publishes ev. An empty type is filled with EventDataUpdated.
func (n *KafkaNotifier) DataUpdated(ctx context.Context, ev Event) error {
	if ev.Type == "" {
		ev.Type = EventDataUpdated
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.BatchID),
		Value: payload,
		Time:  ev.UpdatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}

	n.logger.Debug("Published event",
		zap.String("type", ev.Type),
		zap.String("batchID", ev.BatchID))
	return nil
}

// Close releases the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
