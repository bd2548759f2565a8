package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes Kafka messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(ctx context.Context, msg *Message) error

// HandleMessage calls f.
func (f HandlerFunc) HandleMessage(ctx context.Context, msg *Message) error { return f(ctx, msg) }

const (
	backoffCap  = 10
	baseDelay   = 1 * time.Second
	maxDelay    = 5 * time.Minute
	maxAttempts = 50 // a message still failing after this many attempts is skipped
)

// Consumer reads one topic and hands each message to a handler, committing manually.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		// With no committed offset, start at the beginning so early events are not lost.
		StartOffset: kafka.FirstOffset,
	})

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Str("group_id", groupID).
		Msg("Kafka consumer initialized")

	return &Consumer{reader: reader, handler: handler}
}

// Start consumes until ctx is cancelled. A message is retried with exponential
// backoff and skipped after maxAttempts so one bad message cannot block the partition.
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Msg("Starting Kafka consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Failed to fetch message")
			continue
		}

		if err := c.processWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("CRITICAL: Message processing failed after all retries - SKIPPING MESSAGE")
		}

		// Redelivery after a failed commit is tolerated; handlers are idempotent.
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit message")
		}
	}
}

func (c *Consumer) processWithRetry(ctx context.Context, msg kafka.Message) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = c.processMessage(ctx, msg)
		if lastErr == nil {
			return nil
		}

		log.Error().
			Err(lastErr).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Int("attempt", attempt+1).
			Msg("Failed to process message - will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return lastErr
}

func retryDelay(attempt int) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(min(attempt, backoffCap)))
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Consumer) processMessage(ctx context.Context, raw kafka.Message) error {
	var msg Message
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if err := c.handler.HandleMessage(ctx, &msg); err != nil {
		return fmt.Errorf("handler error: %w", err)
	}

	log.Info().
		Str("job_id", msg.JobID.String()).
		Str("event", msg.Event).
		Msg("Message processed successfully")
	return nil
}

// Close closes the consumer
func (c *Consumer) Close() error {
	log.Info().Msg("Closing Kafka consumer")
	return c.reader.Close()
}
