package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/smukkama/city-analytics/internal/protocol"
)

// messageReader is the subset of *kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads alert messages from Kafka
type Consumer struct {
	reader messageReader
	logger *slog.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,    // 1 byte
			MaxBytes:       10e6, // 10MB
			CommitInterval: 0,    // Manual commit
			StartOffset:    kafka.LastOffset,
		}),
		logger: logger,
	}
}

// AlertHandler processes one decoded alert. A returned error stops Run.
type AlertHandler func(ctx context.Context, msg *protocol.AlertMessage) error

// Run consumes alerts until ctx is done. Undecodable messages are logged
// and committed so they do not block the partition. Offsets are committed
// per partition, so a handler error ends Run before anything later is
// committed; the group resumes from the failed message on restart.
func (c *Consumer) Run(ctx context.Context, handle AlertHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		alert, err := protocol.DecodeAlertMessage(msg.Value)
		if err != nil {
			c.logger.Warn("dropping undecodable alert", "offset", msg.Offset, "error", err)
			c.commit(ctx, msg)
			continue
		}

		if err := handle(ctx, alert); err != nil {
			return fmt.Errorf("failed to handle alert %s at offset %d: %w", alert.ID, msg.Offset, err)
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit offset", "offset", msg.Offset, "error", err)
	}
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
