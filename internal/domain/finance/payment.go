package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction is the direction money moves relative to the business
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// IsValid returns true if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// PaymentMode selects how a payment is allocated
type PaymentMode string

const (
	PaymentModeAdvance        PaymentMode = "advance"
	PaymentModeAgainstInvoice PaymentMode = "against_invoice"
)

// IsValid returns true if the mode is known
func (m PaymentMode) IsValid() bool {
	return m == PaymentModeAdvance || m == PaymentModeAgainstInvoice
}

// PaymentSource tags where a payment came from. Diagnostic only.
type PaymentSource string

const (
	PaymentSourceManual    PaymentSource = "manual"
	PaymentSourceAutomated PaymentSource = "automated"
	PaymentSourceImported  PaymentSource = "imported"
)

// IsValid returns true if the source is known
func (s PaymentSource) IsValid() bool {
	switch s {
	case PaymentSourceManual, PaymentSourceAutomated, PaymentSourceImported:
		return true
	}
	return false
}

// PaymentAllocation is the part of a payment attached to one invoice
type PaymentAllocation struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// Payment is money received from or paid to a party. Payments are immutable
// once recorded; corrections are new payments in the opposite direction.
type Payment struct {
	shared.BaseAggregateRoot
	Number           string
	PartyID          uuid.UUID
	Direction        Direction
	Amount           decimal.Decimal
	Mode             PaymentMode
	Allocations      []PaymentAllocation
	AdvanceRemainder decimal.Decimal
	BankAccountID    *uuid.UUID
	Source           PaymentSource
	IdempotencyKey   string
	Actor            string
	Notes            string
	PaymentDate      time.Time
}

// PaymentParams carries the caller-supplied attributes of a new payment
type PaymentParams struct {
	PartyID        uuid.UUID
	Direction      Direction
	Amount         decimal.Decimal
	Mode           PaymentMode
	BankAccountID  *uuid.UUID
	Source         PaymentSource
	IdempotencyKey string
	Actor          string
	Notes          string
	PaymentDate    time.Time
}

// ValidatePaymentParams checks the caller-supplied attributes
func ValidatePaymentParams(p PaymentParams) error {
	if p.PartyID == uuid.Nil {
		return NewPaymentError(KindInvalidInput, "party id is required")
	}
	if !p.Direction.IsValid() {
		return NewPaymentError(KindInvalidInput, "direction must be 'in' or 'out'").WithParty(p.PartyID)
	}
	if !p.Amount.IsPositive() {
		return NewPaymentError(KindInvalidInput, "payment amount must be positive").
			WithParty(p.PartyID).WithAmount(p.Amount)
	}
	if !p.Amount.Equal(p.Amount.Round(4)) {
		return NewPaymentError(KindInvalidInput, "payment amount supports at most 4 decimal places").
			WithParty(p.PartyID).WithAmount(p.Amount)
	}
	if !p.Mode.IsValid() {
		return NewPaymentError(KindInvalidInput, "mode must be 'advance' or 'against_invoice'").WithParty(p.PartyID)
	}
	if p.Source != "" && !p.Source.IsValid() {
		return NewPaymentError(KindInvalidInput, "source must be 'manual', 'automated' or 'imported'").WithParty(p.PartyID)
	}
	if len(p.IdempotencyKey) > 100 {
		return NewPaymentError(KindInvalidInput, "idempotency key cannot exceed 100 characters").WithParty(p.PartyID)
	}
	return nil
}

// NewPayment builds a payment from validated params and a resolved allocation plan
func NewPayment(p PaymentParams, plan *AllocationPlan) (*Payment, error) {
	if err := ValidatePaymentParams(p); err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, NewPaymentError(KindInvalidAllocation, "allocation plan is required").WithParty(p.PartyID)
	}

	source := p.Source
	if source == "" {
		source = PaymentSourceManual
	}
	paymentDate := p.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	payment := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PartyID:           p.PartyID,
		Direction:         p.Direction,
		Amount:            p.Amount,
		Mode:              p.Mode,
		AdvanceRemainder:  plan.AdvanceRemainder,
		BankAccountID:     p.BankAccountID,
		Source:            source,
		IdempotencyKey:    strings.TrimSpace(p.IdempotencyKey),
		Actor:             p.Actor,
		Notes:             p.Notes,
		PaymentDate:       paymentDate,
	}
	payment.Number = GeneratePaymentNumber(payment.CreatedAt, payment.ID)

	payment.Allocations = make([]PaymentAllocation, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		payment.Allocations = append(payment.Allocations, PaymentAllocation{
			InvoiceID:     line.InvoiceID,
			InvoiceNumber: line.InvoiceNumber,
			Amount:        line.Amount,
		})
	}

	if err := payment.Validate(); err != nil {
		return nil, err
	}

	return payment, nil
}

// AllocatedTotal returns the amount attached to invoices
func (p *Payment) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// Validate checks that allocations plus remainder reconcile to the amount
func (p *Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return NewPaymentError(KindInvalidInput, "payment amount must be positive").WithParty(p.PartyID)
	}
	if p.AdvanceRemainder.IsNegative() {
		return NewPaymentError(KindInvalidAllocation, "advance remainder cannot be negative").WithParty(p.PartyID)
	}
	if p.Mode == PaymentModeAdvance && len(p.Allocations) > 0 {
		return NewPaymentError(KindInvalidAllocation, "advance payments cannot be allocated to invoices").WithParty(p.PartyID)
	}
	if !p.AllocatedTotal().Add(p.AdvanceRemainder).Equal(p.Amount) {
		return NewPaymentError(KindInvalidAllocation, "allocations and remainder do not add up to the payment amount").
			WithParty(p.PartyID).WithAmount(p.Amount)
	}
	return nil
}

// HasBankAccount returns true if the payment moves money through a bank or cash account
func (p *Payment) HasBankAccount() bool {
	return p.BankAccountID != nil && *p.BankAccountID != uuid.Nil
}

// BalanceDelta returns the signed change this payment makes to the party balance.
// The whole amount moves the balance; the invoice split does not matter.
func (p *Payment) BalanceDelta(partyType partner.PartyType) decimal.Decimal {
	return BalanceDelta(partyType, p.Direction, p.Amount)
}

// BankDelta returns the signed change to the linked bank account
func (p *Payment) BankDelta() decimal.Decimal {
	if p.Direction == DirectionOut {
		return p.Amount.Neg()
	}
	return p.Amount
}

// BalanceDelta applies the party sign convention: money received from a
// customer or paid to a supplier settles debt and lowers the balance; the
// reverse directions (refunds) raise it.
func BalanceDelta(partyType partner.PartyType, direction Direction, amount decimal.Decimal) decimal.Decimal {
	if SettlesNaturalDebt(partyType, direction) {
		return amount.Neg()
	}
	return amount
}

// SettlesNaturalDebt reports whether the direction pays down what the party
// balance represents for that party type.
func SettlesNaturalDebt(partyType partner.PartyType, direction Direction) bool {
	switch partyType {
	case partner.PartyTypeCustomer:
		return direction == DirectionIn
	case partner.PartyTypeSupplier:
		return direction == DirectionOut
	}
	return false
}

// GeneratePaymentNumber builds a human-readable payment number
func GeneratePaymentNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("PAY-%s-%s", at.Format("20060102"), strings.ToUpper(id.String()[:8]))
}
