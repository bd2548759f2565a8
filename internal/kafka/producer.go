package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Events carried on the topics.
const (
	EventJobCreated   = "job_created"
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
)

// Message is the envelope published to both the jobs and the webhooks topic.
type Message struct {
	JobID   uuid.UUID `json:"job_id"`
	Event   string    `json:"event"`
	TraceID string    `json:"trace_id,omitempty"`
}

// Producer wraps a Kafka producer
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka producer initialized")

	return &Producer{writer: writer, topic: topic}
}

// PublishJob enqueues a job for the worker.
func (p *Producer) PublishJob(ctx context.Context, jobID uuid.UUID, traceID string) error {
	return p.publish(ctx, Message{JobID: jobID, Event: EventJobCreated, TraceID: traceID})
}

// PublishWebhook enqueues a completion event for the dispatcher.
func (p *Producer) PublishWebhook(ctx context.Context, jobID uuid.UUID, event, traceID string) error {
	return p.publish(ctx, Message{JobID: jobID, Event: event, TraceID: traceID})
}

// publish keys messages by job ID so all events of a job land on one partition.
func (p *Producer) publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", msg.Event, err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.JobID.String()),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	log.Info().
		Str("job_id", msg.JobID.String()).
		Str("event", msg.Event).
		Str("topic", p.topic).
		Msg("Message published to Kafka")
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	log.Info().Str("topic", p.topic).Msg("Closing Kafka producer")
	return p.writer.Close()
}
