// Package payment records payments against parties: it allocates the amount
// over open invoices, commits invoice, payment and balance changes as one
// unit, then runs the bank, audit and notification steps best-effort.
package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// RecordPaymentCommand is the input of RecordPayment
type RecordPaymentCommand struct {
	PartyID   uuid.UUID
	Direction finance.Direction
	Amount    decimal.Decimal
	Mode      finance.PaymentMode
	// Allocations targets specific invoices. Empty in against_invoice mode
	// means bulk: oldest due first over every open invoice.
	Allocations   []finance.AllocationRequest
	BankAccountID *uuid.UUID
	Metadata      Metadata
}

// Metadata carries the descriptive attributes of a payment
type Metadata struct {
	Actor          string
	Source         finance.PaymentSource
	IdempotencyKey string
	Notes          string
	PaymentDate    time.Time
}

func (c RecordPaymentCommand) params() finance.PaymentParams {
	return finance.PaymentParams{
		PartyID:        c.PartyID,
		Direction:      c.Direction,
		Amount:         c.Amount,
		Mode:           c.Mode,
		BankAccountID:  c.BankAccountID,
		Source:         c.Metadata.Source,
		IdempotencyKey: c.Metadata.IdempotencyKey,
		Actor:          c.Metadata.Actor,
		Notes:          c.Metadata.Notes,
		PaymentDate:    c.Metadata.PaymentDate,
	}
}

// State is a step of the recording workflow
type State string

const (
	StateValidating              State = "validating"
	StateAllocating              State = "allocating"
	StateApplyingInvoices        State = "applying_invoices"
	StateApplyingBalance         State = "applying_balance"
	StateApplyingBankTransaction State = "applying_bank_transaction"
	StateAuditing                State = "auditing"
	StateCompleted               State = "completed"
	StatePartiallyCompleted      State = "partially_completed"
	StateRejected                State = "rejected"
)

// Warning is a best-effort step that failed after the payment was committed
type Warning struct {
	Kind    finance.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

// PaymentResult is the outcome of a committed (or replayed) payment
type PaymentResult struct {
	Payment                *finance.Payment
	PartyBalance           decimal.Decimal
	BankTransactionCreated bool
	BankTransaction        *banking.BankTransaction
	Warnings               []Warning
	State                  State
	// Replayed is true when the idempotency key matched an existing payment
	// and nothing new was written.
	Replayed bool
}

// HasWarnings reports whether any best-effort step failed
func (r *PaymentResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *PaymentResult) warn(kind finance.ErrorKind, message string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Message: message})
}
