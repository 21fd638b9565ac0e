package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// publishedPayment runs an event through the handler and the Redis notifier
// and returns the bytes that went on the channel
func publishedPayment(t *testing.T) (*finance.PaymentRecordedEvent, []byte) {
	t.Helper()
	pub := &fakePublisher{}
	h := NewPaymentNotificationHandler(NewRedisNotifier(pub, "shopledger:payments", nil), nil, "en", nil)
	evt := overpaymentEvent()
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NotEmpty(t, pub.payload)
	return evt, pub.payload
}

func TestDecodeNotification(t *testing.T) {
	codec := event.NewLedgerCodec()

	t.Run("payload decodes to the published event", func(t *testing.T) {
		evt, data := publishedPayment(t)

		rec, err := DecodeNotification(codec, data)
		require.NoError(t, err)
		assert.Equal(t, finance.EventTypePaymentRecorded, rec.EventType)
		assert.Contains(t, rec.Body, "820.00 held as advance")

		got, ok := rec.Event.(*finance.PaymentRecordedEvent)
		require.True(t, ok)
		assert.Equal(t, evt.EventID(), got.EventID())
		assert.Equal(t, "PAY-20240301-0001", got.Number)
		assert.True(t, got.AdvanceRemainder.Equal(evt.AdvanceRemainder))
	})

	t.Run("notification without payload", func(t *testing.T) {
		rec, err := DecodeNotification(codec, []byte(`{"event_type":"payment.recorded","subject":"s"}`))
		require.NoError(t, err)
		assert.Nil(t, rec.Event)
		assert.Equal(t, "s", rec.Subject)
	})

	t.Run("unknown event type", func(t *testing.T) {
		_, err := DecodeNotification(codec, []byte(`{"event_type":"party.merged","payload":{}}`))
		assert.ErrorIs(t, err, event.ErrUnknownEventType)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodeNotification(codec, []byte("hello"))
		assert.ErrorContains(t, err, "failed to unmarshal notification")
	})
}

func TestSubscriber_Consume(t *testing.T) {
	_, data := publishedPayment(t)
	core, logs := observer.New(zap.WarnLevel)
	s := NewSubscriber(nil, "shopledger:payments", zap.New(core))

	messages := make(chan *redis.Message, 3)
	messages <- &redis.Message{Channel: "shopledger:payments", Payload: "garbage"}
	messages <- &redis.Message{Channel: "shopledger:payments", Payload: string(data)}
	close(messages)

	var received []*Received
	err := s.consume(context.Background(), messages, func(r *Received) error {
		received = append(received, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.IsType(t, &finance.PaymentRecordedEvent{}, received[0].Event)
	assert.Equal(t, 1, logs.FilterMessage("Skipping undecodable notification").Len())

	t.Run("callback error stops the loop", func(t *testing.T) {
		messages := make(chan *redis.Message, 1)
		messages <- &redis.Message{Payload: string(data)}
		stop := errors.New("stop")
		err := s.consume(context.Background(), messages, func(*Received) error { return stop })
		assert.ErrorIs(t, err, stop)
	})

	t.Run("cancelled context returns", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, s.consume(ctx, make(chan *redis.Message), func(*Received) error { return nil }))
	})
}
