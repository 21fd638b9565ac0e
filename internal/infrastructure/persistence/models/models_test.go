package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap(t *testing.T) {
	t.Run("nil map stores empty object", func(t *testing.T) {
		v, err := JSONMap(nil).Value()
		require.NoError(t, err)
		assert.Equal(t, "{}", v)
	})

	t.Run("scans bytes and strings", func(t *testing.T) {
		var m JSONMap
		require.NoError(t, m.Scan([]byte(`{"amount":"100"}`)))
		assert.Equal(t, "100", m["amount"])

		require.NoError(t, m.Scan(`{"warnings":2}`))
		assert.Equal(t, float64(2), m["warnings"])

		require.NoError(t, m.Scan(nil))
		assert.Empty(t, m)
	})

	t.Run("rejects other types", func(t *testing.T) {
		var m JSONMap
		assert.Error(t, m.Scan(42))
	})
}

func TestPaymentModel_IdempotencyKey(t *testing.T) {
	party := uuid.New()
	plan := &finance.AllocationPlan{
		Strategy:         finance.AllocationStrategyAdvance,
		TotalAllocated:   decimal.Zero,
		AdvanceRemainder: decimal.NewFromInt(50),
	}

	withoutKey, err := finance.NewPayment(finance.PaymentParams{
		PartyID:   party,
		Direction: finance.DirectionIn,
		Amount:    decimal.NewFromInt(50),
		Mode:      finance.PaymentModeAdvance,
	}, plan)
	require.NoError(t, err)

	m := PaymentModelFromDomain(withoutKey)
	assert.Nil(t, m.IdempotencyKey)
	assert.Empty(t, m.ToDomain().IdempotencyKey)

	withKey, err := finance.NewPayment(finance.PaymentParams{
		PartyID:        party,
		Direction:      finance.DirectionIn,
		Amount:         decimal.NewFromInt(50),
		Mode:           finance.PaymentModeAdvance,
		IdempotencyKey: "till-42",
	}, plan)
	require.NoError(t, err)

	m = PaymentModelFromDomain(withKey)
	require.NotNil(t, m.IdempotencyKey)
	assert.Equal(t, "till-42", m.ToDomain().IdempotencyKey)
}

func TestPaymentModel_Allocations(t *testing.T) {
	inv := uuid.New()
	p, err := finance.NewPayment(finance.PaymentParams{
		PartyID:     uuid.New(),
		Direction:   finance.DirectionIn,
		Amount:      decimal.NewFromInt(100),
		Mode:        finance.PaymentModeAgainstInvoice,
		PaymentDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, &finance.AllocationPlan{
		Strategy: finance.AllocationStrategySingle,
		Lines: []finance.AllocationLine{
			{InvoiceID: inv, InvoiceNumber: "INV-1", Amount: decimal.NewFromInt(60)},
		},
		TotalAllocated:   decimal.NewFromInt(60),
		AdvanceRemainder: decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	m := PaymentModelFromDomain(p)
	require.Len(t, m.Allocations, 1)
	assert.Equal(t, p.ID, m.Allocations[0].PaymentID)

	back := m.ToDomain()
	require.Len(t, back.Allocations, 1)
	assert.Equal(t, inv, back.Allocations[0].InvoiceID)
	assert.True(t, back.AllocatedTotal().Add(back.AdvanceRemainder).Equal(back.Amount))
}

func TestPartyModel_ToDomainCarriesVersion(t *testing.T) {
	p, err := partner.NewParty("c-1", "Acme", partner.PartyTypeCustomer, decimal.NewFromInt(10))
	require.NoError(t, err)
	p.Version = 4

	back := PartyModelFromDomain(p).ToDomain()
	assert.Equal(t, 4, back.Version)
	assert.Equal(t, "C-1", back.Code)
	assert.Empty(t, back.GetDomainEvents())
}
