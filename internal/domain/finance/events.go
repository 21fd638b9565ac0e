package finance

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeInvoice = "Invoice"
	AggregateTypePayment = "Payment"
	AggregateTypeLedger  = "Ledger"
)

// Event type constants
const (
	EventTypeInvoiceIssued         = "invoice.issued"
	EventTypeInvoicePaymentApplied = "invoice.payment_applied"
	EventTypePaymentRecorded       = "payment.recorded"
	EventTypeLedgerDriftDetected   = "ledger.drift_detected"
)

// InvoiceIssuedEvent is published when an invoice is issued
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Number      string          `json:"number"`
	PartyID     uuid.UUID       `json:"party_id"`
	Kind        InvoiceKind     `json:"kind"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		Number:          inv.Number,
		PartyID:         inv.PartyID,
		Kind:            inv.Kind,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePaymentAppliedEvent is published for each invoice a payment touches
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Number        string          `json:"number"`
	PartyID       uuid.UUID       `json:"party_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewInvoicePaymentAppliedEvent creates a new InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, paymentID uuid.UUID, amount decimal.Decimal) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentApplied, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		Number:          inv.Number,
		PartyID:         inv.PartyID,
		PaymentID:       paymentID,
		Amount:          amount,
		PaidAmount:      inv.PaidAmount,
		DueAmount:       inv.DueAmount(),
		PaymentStatus:   inv.PaymentStatus(),
	}
}

// PaymentRecordedEvent is published after a payment's committed unit succeeds
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID        uuid.UUID       `json:"payment_id"`
	Number           string          `json:"number"`
	PartyID          uuid.UUID       `json:"party_id"`
	Direction        Direction       `json:"direction"`
	Amount           decimal.Decimal `json:"amount"`
	Mode             PaymentMode     `json:"mode"`
	AllocatedAmount  decimal.Decimal `json:"allocated_amount"`
	AdvanceRemainder decimal.Decimal `json:"advance_remainder"`
	PartyBalance     decimal.Decimal `json:"party_balance"`
	Source           PaymentSource   `json:"source"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment, partyBalance decimal.Decimal) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID),
		PaymentID:        p.ID,
		Number:           p.Number,
		PartyID:          p.PartyID,
		Direction:        p.Direction,
		Amount:           p.Amount,
		Mode:             p.Mode,
		AllocatedAmount:  p.AllocatedTotal(),
		AdvanceRemainder: p.AdvanceRemainder,
		PartyBalance:     partyBalance,
		Source:           p.Source,
	}
}

// LedgerDriftDetectedEvent is published when a party balance no longer
// matches the balance rebuilt from its invoices and payments
type LedgerDriftDetectedEvent struct {
	shared.BaseDomainEvent
	PartyID  uuid.UUID       `json:"party_id"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
	Drift    decimal.Decimal `json:"drift"`
}

// NewLedgerDriftDetectedEvent creates a new LedgerDriftDetectedEvent
func NewLedgerDriftDetectedEvent(partyID uuid.UUID, expected, actual decimal.Decimal) *LedgerDriftDetectedEvent {
	return &LedgerDriftDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerDriftDetected, AggregateTypeLedger, partyID),
		PartyID:         partyID,
		Expected:        expected,
		Actual:          actual,
		Drift:           actual.Sub(expected),
	}
}
