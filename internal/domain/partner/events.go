package partner

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeParty is the aggregate type name for parties
const AggregateTypeParty = "Party"

// Event type constants
const (
	EventTypePartyCreated        = "party.created"
	EventTypePartyStatusChanged  = "party.status_changed"
	EventTypePartyBalanceChanged = "party.balance_changed"
)

// PartyCreatedEvent is published when a party is onboarded
type PartyCreatedEvent struct {
	shared.BaseDomainEvent
	PartyID        uuid.UUID       `json:"party_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           PartyType       `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// NewPartyCreatedEvent creates a new PartyCreatedEvent
func NewPartyCreatedEvent(p *Party) *PartyCreatedEvent {
	return &PartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyCreated, AggregateTypeParty, p.ID),
		PartyID:         p.ID,
		Code:            p.Code,
		Name:            p.Name,
		Type:            p.Type,
		OpeningBalance:  p.OpeningBalance,
	}
}

// PartyStatusChangedEvent is published when a party is activated or deactivated
type PartyStatusChangedEvent struct {
	shared.BaseDomainEvent
	PartyID  uuid.UUID `json:"party_id"`
	IsActive bool      `json:"is_active"`
}

// NewPartyStatusChangedEvent creates a new PartyStatusChangedEvent
func NewPartyStatusChangedEvent(p *Party) *PartyStatusChangedEvent {
	return &PartyStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyStatusChanged, AggregateTypeParty, p.ID),
		PartyID:         p.ID,
		IsActive:        p.IsActive,
	}
}

// BalanceChangedEvent records one atomic delta applied to a party balance
type BalanceChangedEvent struct {
	shared.BaseDomainEvent
	PartyID       uuid.UUID       `json:"party_id"`
	Delta         decimal.Decimal `json:"delta"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
}

// NewBalanceChangedEvent creates a new BalanceChangedEvent
func NewBalanceChangedEvent(partyID uuid.UUID, delta, balanceAfter decimal.Decimal, refType string, refID uuid.UUID) *BalanceChangedEvent {
	return &BalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartyBalanceChanged, AggregateTypeParty, partyID),
		PartyID:         partyID,
		Delta:           delta,
		BalanceAfter:    balanceAfter,
		ReferenceType:   refType,
		ReferenceID:     refID,
	}
}
