package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

const (
	handlerAttempts = 5
	retryBackoff    = 500 * time.Millisecond
)

type Consumer struct {
	reader  messageReader
	logger  *logger.Logger
	backoff time.Duration
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log, backoff: retryBackoff}
}

// TicketHandler processes one ticket.purchased or ticket.deleted message.
type TicketHandler func(ctx context.Context, evt models.TicketChanged) error

// Start blocks, feeding decoded messages to handler until ctx is cancelled.
// Offsets are committed only after the handler succeeds. A message the handler
// keeps failing on stops the consumer uncommitted, so it is redelivered on the
// next start rather than skipped.
func (c *Consumer) Start(ctx context.Context, handler TicketHandler) error {
	c.logger.LogKafka("CONSUME", c.reader.Config().Topic, "consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			return err
		}

		evt, err := DecodeTicketChanged(msg.Value)
		if err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping undecodable message at offset %d: %v", msg.Offset, err))
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.handle(ctx, handler, evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("offset %d left uncommitted: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Failed to commit offset %d: %v", msg.Offset, err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler TicketHandler, evt models.TicketChanged) error {
	var err error
	for attempt := 1; attempt <= handlerAttempts; attempt++ {
		if err = handler(ctx, evt); err == nil {
			return nil
		}
		c.logger.Error("KAFKA", fmt.Sprintf("Handler failed for ticket %s (attempt %d/%d): %v", evt.TicketID, attempt, handlerAttempts, err))
		if attempt == handlerAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return err
}

func DecodeTicketChanged(value []byte) (models.TicketChanged, error) {
	var evt models.TicketChanged
	if err := json.Unmarshal(value, &evt); err != nil {
		return evt, err
	}
	if evt.EventID == "" {
		return evt, errors.New("message has no event_id")
	}
	return evt, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
