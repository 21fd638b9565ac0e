package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceKind distinguishes sales invoices from purchase bills
type InvoiceKind string

const (
	InvoiceKindSales    InvoiceKind = "sales"
	InvoiceKindPurchase InvoiceKind = "purchase"
)

// IsValid returns true if the kind is known
func (k InvoiceKind) IsValid() bool {
	return k == InvoiceKindSales || k == InvoiceKindPurchase
}

// SettlementDirection returns the payment direction that settles this kind
func (k InvoiceKind) SettlementDirection() Direction {
	if k == InvoiceKindPurchase {
		return DirectionOut
	}
	return DirectionIn
}

// PartyType returns the party type this kind is issued against
func (k InvoiceKind) PartyType() partner.PartyType {
	if k == InvoiceKindPurchase {
		return partner.PartyTypeSupplier
	}
	return partner.PartyTypeCustomer
}

// PaymentStatus is derived from total and paid amounts. It is never stored.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// DueAmount computes total - paid, clamped at zero
func DueAmount(total, paid decimal.Decimal) decimal.Decimal {
	due := total.Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// DerivePaymentStatus computes the payment status from total and paid amounts
func DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

// Invoice is a sales invoice or purchase bill issued against a party.
// TotalAmount is fixed at issue; PaidAmount only grows through ApplyAllocation.
type Invoice struct {
	shared.BaseAggregateRoot
	Number      string
	PartyID     uuid.UUID
	Kind        InvoiceKind
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	InvoiceDate time.Time
	DueDate     *time.Time
	Notes       string

	// allocated since the invoice was loaded
	applied decimal.Decimal
}

// NewInvoice issues a new unpaid invoice
func NewInvoice(partyID uuid.UUID, kind InvoiceKind, number string, total decimal.Decimal, invoiceDate time.Time, dueDate *time.Time) (*Invoice, error) {
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Invoice kind must be 'sales' or 'purchase'")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be positive")
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	if dueDate != nil && dueDate.Before(invoiceDate.Truncate(24*time.Hour)) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		PartyID:           partyID,
		Kind:              kind,
		TotalAmount:       total,
		PaidAmount:        decimal.Zero,
		InvoiceDate:       invoiceDate,
		DueDate:           dueDate,
	}

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return inv, nil
}

// DueAmount returns the outstanding amount, recomputed on every call
func (i *Invoice) DueAmount() decimal.Decimal {
	return DueAmount(i.TotalAmount, i.PaidAmount)
}

// PaymentStatus returns the derived payment status
func (i *Invoice) PaymentStatus() PaymentStatus {
	return DerivePaymentStatus(i.TotalAmount, i.PaidAmount)
}

// IsSettled returns true once nothing is due
func (i *Invoice) IsSettled() bool {
	return i.PaymentStatus() == PaymentStatusPaid
}

// IsOverdue returns true if the invoice has a due date in the past and is not settled
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.DueDate != nil && now.After(*i.DueDate) && !i.IsSettled()
}

// LoadedPaidAmount returns the paid amount as it was read, before any
// allocation applied to this copy
func (i *Invoice) LoadedPaidAmount() decimal.Decimal {
	return i.PaidAmount.Sub(i.applied)
}

// Validate checks 0 <= paid <= total
func (i *Invoice) Validate() error {
	if i.PaidAmount.IsNegative() {
		return shared.NewDomainError("INVALID_STATE", "Paid amount cannot be negative")
	}
	if i.PaidAmount.GreaterThan(i.TotalAmount) {
		return shared.NewDomainError("INVALID_STATE", "Paid amount cannot exceed total amount")
	}
	return nil
}

// ApplyAllocation adds an allocated amount to the paid amount. The amount
// must already be capped at the current due amount.
func (i *Invoice) ApplyAllocation(amount decimal.Decimal, paymentID uuid.UUID) error {
	if !amount.IsPositive() {
		return NewPaymentError(KindInvalidAllocation, "allocated amount must be positive").
			WithInvoice(i.ID).WithAmount(amount)
	}
	due := i.DueAmount()
	if amount.GreaterThan(due) {
		return NewPaymentError(KindInvalidAllocation, "allocated amount exceeds invoice due amount").
			WithInvoice(i.ID).WithAmount(amount)
	}

	i.PaidAmount = i.PaidAmount.Add(amount)
	i.applied = i.applied.Add(amount)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoicePaymentAppliedEvent(i, paymentID, amount))

	return nil
}
