package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// Received is a notification read back from the channel, with its payload
// decoded into the ledger event it was rendered from. Event is nil when the
// notification carried no payload.
type Received struct {
	Notification
	Event shared.DomainEvent
}

// DecodeNotification parses a message published by RedisNotifier
func DecodeNotification(codec *event.Codec, data []byte) (*Received, error) {
	var rec Received
	if err := json.Unmarshal(data, &rec.Notification); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	if len(rec.Payload) == 0 {
		return &rec, nil
	}
	evt, err := codec.Decode(rec.EventType, rec.Payload)
	if err != nil {
		return nil, err
	}
	rec.Event = evt
	return &rec, nil
}

// redisSubscriber is the part of the go-redis client the subscriber needs
type redisSubscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Subscriber reads the notifications RedisNotifier publishes
type Subscriber struct {
	client  redisSubscriber
	channel string
	codec   *event.Codec
	logger  *zap.Logger
}

// NewSubscriber creates a subscriber on an existing client
func NewSubscriber(client redisSubscriber, channel string, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{client: client, channel: channel, codec: event.NewLedgerCodec(), logger: logger}
}

// Run calls fn for every notification until ctx is done or fn fails.
// Messages that cannot be decoded are logged and skipped.
func (s *Subscriber) Run(ctx context.Context, fn func(*Received) error) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Debug("Subscribed to notifications", zap.String("channel", s.channel))
	return s.consume(ctx, sub.Channel(), fn)
}

func (s *Subscriber) consume(ctx context.Context, messages <-chan *redis.Message, fn func(*Received) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			rec, err := DecodeNotification(s.codec, []byte(msg.Payload))
			if err != nil {
				s.logger.Warn("Skipping undecodable notification",
					zap.String("channel", msg.Channel),
					zap.Error(err),
				)
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
}
