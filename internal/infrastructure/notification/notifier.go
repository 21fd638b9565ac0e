// Package notification turns ledger events into short human-readable
// messages and hands them to a fire-and-forget sink.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notification is one rendered message
type Notification struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Locale     string          `json:"locale"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Notifier delivers notifications. Implementations must not block for long;
// callers treat any error as a logged warning.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// redisPublisher is the part of the go-redis client the notifier needs
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes notifications as JSON on a Redis pub/sub channel
type RedisNotifier struct {
	client  redisPublisher
	channel string
	logger  *zap.Logger
}

// NewRedisNotifier creates a notifier on an existing client
func NewRedisNotifier(client redisPublisher, channel string, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

// Notify implements Notifier
func (n *RedisNotifier) Notify(ctx context.Context, msg Notification) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	receivers, err := n.client.Publish(ctx, n.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	n.logger.Debug("Notification published",
		zap.String("channel", n.channel),
		zap.String("event_type", msg.EventType),
		zap.Int64("receivers", receivers),
	)
	return nil
}

// LogNotifier writes notifications to the log. Used when Redis is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notification")}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.logger.Info(msg.Subject,
		zap.String("event_type", msg.EventType),
		zap.String("event_id", msg.EventID.String()),
		zap.String("body", msg.Body),
	)
	return nil
}

var (
	_ Notifier = (*RedisNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
