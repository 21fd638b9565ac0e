package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ErrUnknownEventType is returned for an event type the codec has no
// concrete struct for
var ErrUnknownEventType = errors.New("unknown event type")

// Codec turns ledger events into the JSON carried by notifications and
// back into their concrete event structs
type Codec struct {
	decoders map[string]func() shared.DomainEvent
}

// NewLedgerCodec returns a codec for every event the ledger publishes
func NewLedgerCodec() *Codec {
	return &Codec{decoders: map[string]func() shared.DomainEvent{
		partner.EventTypePartyCreated:        func() shared.DomainEvent { return &partner.PartyCreatedEvent{} },
		partner.EventTypePartyStatusChanged:  func() shared.DomainEvent { return &partner.PartyStatusChangedEvent{} },
		partner.EventTypePartyBalanceChanged: func() shared.DomainEvent { return &partner.BalanceChangedEvent{} },

		finance.EventTypeInvoiceIssued:         func() shared.DomainEvent { return &finance.InvoiceIssuedEvent{} },
		finance.EventTypeInvoicePaymentApplied: func() shared.DomainEvent { return &finance.InvoicePaymentAppliedEvent{} },
		finance.EventTypePaymentRecorded:       func() shared.DomainEvent { return &finance.PaymentRecordedEvent{} },
		finance.EventTypeLedgerDriftDetected:   func() shared.DomainEvent { return &finance.LedgerDriftDetectedEvent{} },

		banking.EventTypeBankTransactionRecorded: func() shared.DomainEvent { return &banking.TransactionRecordedEvent{} },
	}}
}

// Encode marshals an event the codec can later decode
func (c *Codec) Encode(evt shared.DomainEvent) ([]byte, error) {
	if !c.Knows(evt.EventType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, evt.EventType())
	}
	return json.Marshal(evt)
}

// Decode unmarshals data into the struct registered for eventType. The type
// recorded inside the payload must agree with eventType.
func (c *Codec) Decode(eventType string, data []byte) (shared.DomainEvent, error) {
	newEvent, ok := c.decoders[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}
	evt := newEvent()
	if err := json.Unmarshal(data, evt); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}
	if evt.EventType() != eventType {
		return nil, fmt.Errorf("payload is a %q event, not %q", evt.EventType(), eventType)
	}
	return evt, nil
}

// Knows reports whether eventType can be decoded
func (c *Codec) Knows(eventType string) bool {
	_, ok := c.decoders[eventType]
	return ok
}

// EventTypes returns the decodable event types in order
func (c *Codec) EventTypes() []string {
	types := make([]string, 0, len(c.decoders))
	for t := range c.decoders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
