// Package config provides configuration parsing and validation for the
// monitoring pipeline.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds all configuration parameters for the service.
type Config struct {
	HTTPPort    string
	PostgresDSN string
	RedisAddr   string

	// Kafka ingestion is optional; leave the brokers empty to disable it.
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string

	// EmailRecipients is a comma-separated list of alert recipients. Empty
	// disables the email channel.
	EmailRecipients string
	// ChatWebhookURL enables the chat channel when set.
	ChatWebhookURL string

	// Error tracker integration; empty capture URL disables it.
	TrackerCaptureURL string
	TrackerAuthToken  string
	TrackerViewURL    string

	// DashboardURL is linked from every alert message.
	DashboardURL string

	// ScanInterval is the time between periodic alert scans.
	ScanInterval time.Duration

	// FailClosed rejects traffic when the rate limiter backend is down.
	// Default is fail-open: a broken limiter never blocks ingestion.
	FailClosed bool

	// Dispatcher tuning. Zero values use the dispatcher defaults.
	QueueSize int
	Workers   int
}

// Validate checks that all required configuration fields are set and have
// valid values.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.KafkaBrokers != "" {
		if c.KafkaTopic == "" {
			return fmt.Errorf("kafka-topic cannot be empty when kafka-brokers is set")
		}
		if c.KafkaGroupID == "" {
			return fmt.Errorf("kafka-group-id cannot be empty when kafka-brokers is set")
		}
	}
	if c.ScanInterval < 0 {
		return fmt.Errorf("scan-interval cannot be negative")
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue-size cannot be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	return nil
}

// Recipients splits the configured email recipient list.
func (c *Config) Recipients() []string {
	if c.EmailRecipients == "" {
		return nil
	}
	parts := strings.Split(c.EmailRecipients, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetEnvOrDefault returns the environment variable value or a default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// MaskDSN masks sensitive information in a DSN for logging.
func MaskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:20] + "***" + dsn[len(dsn)-20:]
	}
	return "***"
}

// ConnectRedis creates and validates a Redis connection.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}
