package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCodec_RoundTrip(t *testing.T) {
	c := NewLedgerCodec()

	partyID := uuid.New()
	original := partner.NewBalanceChangedEvent(partyID, decimal.RequireFromString("-700.5"), decimal.RequireFromString("479.5"), "payment", uuid.New())

	data, err := c.Encode(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"party.balance_changed"`)

	decoded, err := c.Decode(partner.EventTypePartyBalanceChanged, data)
	require.NoError(t, err)

	got, ok := decoded.(*partner.BalanceChangedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, partyID, got.AggregateID())
	assert.True(t, got.Delta.Equal(original.Delta))
	assert.True(t, got.BalanceAfter.Equal(original.BalanceAfter))
}

func TestLedgerCodec_EventTypes(t *testing.T) {
	c := NewLedgerCodec()

	types := c.EventTypes()
	assert.Len(t, types, 8)
	assert.IsIncreasing(t, types)
	assert.True(t, c.Knows(finance.EventTypePaymentRecorded))
	assert.True(t, c.Knows("bank.transaction_recorded"))
	assert.False(t, c.Knows("test.event"))
}

func TestLedgerCodec_Errors(t *testing.T) {
	c := NewLedgerCodec()

	t.Run("encode unknown type", func(t *testing.T) {
		_, err := c.Encode(newTestEvent("test.event"))
		assert.ErrorIs(t, err, ErrUnknownEventType)
	})

	t.Run("decode unknown type", func(t *testing.T) {
		_, err := c.Decode("unknown.type", []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnknownEventType)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := c.Decode(finance.EventTypePaymentRecorded, []byte(`{not json`))
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("payload of another type", func(t *testing.T) {
		party, err := partner.NewParty("C-1", "Acme", partner.PartyTypeCustomer, decimal.Zero)
		require.NoError(t, err)
		data, err := c.Encode(partner.NewPartyCreatedEvent(party))
		require.NoError(t, err)

		_, err = c.Decode(finance.EventTypePaymentRecorded, data)
		assert.ErrorContains(t, err, "not \"payment.recorded\"")
	})
}
