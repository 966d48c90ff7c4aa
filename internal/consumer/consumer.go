// Package consumer provides the Kafka ingestion path. Batch producers (SDKs,
// edge collectors) publish event submissions to a topic instead of calling
// the HTTP API; the consumer feeds them through the same pipeline.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// ReadTimeout is the maximum time the reader waits for a batch.
	ReadTimeout = 10 * time.Second
)

// MessageConsumer defines the interface for consuming event submissions.
// Implemented by Consumer; fakes implement it in tests.
type MessageConsumer interface {
	ReadSubmission(ctx context.Context) (*Submission, *kafka.Message, error)
	CommitMessage(ctx context.Context, msg *kafka.Message) error
	Close() error
}

// Consumer wraps a Kafka reader for the event submission topic.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// ParseBrokers splits a comma-separated broker list, trimming whitespace.
func ParseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// NewConsumer creates a Kafka consumer for event submissions. The consumer is
// configured for at-least-once delivery: offsets are committed only after
// processing.
func NewConsumer(brokers, topic, groupID string) (*Consumer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("groupID cannot be empty")
	}

	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	// StartOffset only applies when no committed offset exists for the group;
	// FirstOffset ensures a fresh group reads the backlog.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokerList,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
		MaxWait:     ReadTimeout,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadSubmission fetches the next message and deserializes it as an event
// submission. A non-nil message alongside an error means the message was
// fetched but is malformed; the caller decides whether to commit past it.
func (c *Consumer) ReadSubmission(ctx context.Context) (*Submission, *kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	var sub Submission
	if err := json.Unmarshal(msg.Value, &sub); err != nil {
		return nil, &msg, fmt.Errorf("failed to unmarshal event submission: %w", err)
	}
	return &sub, &msg, nil
}

// CommitMessage commits the offset for the given message. Called only after
// the submission was processed.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	return nil
}
