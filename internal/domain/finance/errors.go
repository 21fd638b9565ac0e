package finance

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorKind classifies payment failures. Callers branch on the kind, never on
// the message text.
type ErrorKind string

const (
	KindInvalidInput           ErrorKind = "INVALID_INPUT"
	KindPartyNotFound          ErrorKind = "PARTY_NOT_FOUND"
	KindInvoiceNotFound        ErrorKind = "INVOICE_NOT_FOUND"
	KindInvoiceNotOwnedByParty ErrorKind = "INVOICE_NOT_OWNED_BY_PARTY"
	KindInvalidAllocation      ErrorKind = "INVALID_ALLOCATION"
	KindConcurrentModification ErrorKind = "CONCURRENT_MODIFICATION"
	KindDuplicatePayment       ErrorKind = "DUPLICATE_PAYMENT"
	KindInternal               ErrorKind = "INTERNAL"

	// Soft kinds. They never abort a payment and are reported as warnings.
	KindBankAccountUnavailable ErrorKind = "BANK_ACCOUNT_UNAVAILABLE"
	KindBankTransactionFailed  ErrorKind = "BANK_TRANSACTION_FAILED"
	KindAuditWriteFailed       ErrorKind = "AUDIT_WRITE_FAILED"
)

// IsSoft returns true for kinds that downgrade to warnings
func (k ErrorKind) IsSoft() bool {
	switch k {
	case KindBankAccountUnavailable, KindBankTransactionFailed, KindAuditWriteFailed:
		return true
	}
	return false
}

// PaymentError is the typed failure returned by the payment engine. It carries
// enough context for a caller to render an actionable message.
type PaymentError struct {
	Kind            ErrorKind       `json:"kind"`
	Message         string          `json:"message"`
	PartyID         uuid.UUID       `json:"party_id,omitempty"`
	InvoiceID       uuid.UUID       `json:"invoice_id,omitempty"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Err             error           `json:"-"`
}

// NewPaymentError creates a PaymentError of the given kind
func NewPaymentError(kind ErrorKind, message string) *PaymentError {
	return &PaymentError{Kind: kind, Message: message}
}

// Error implements the error interface
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, finance.ErrConcurrentModification)
func (e *PaymentError) Is(target error) bool {
	var t *PaymentError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether reissuing the same request with fresh state may succeed
func (e *PaymentError) Retryable() bool {
	return e.Kind == KindConcurrentModification || e.Kind == KindDuplicatePayment
}

// WithParty attaches the party id
func (e *PaymentError) WithParty(id uuid.UUID) *PaymentError {
	e.PartyID = id
	return e
}

// WithInvoice attaches the conflicting invoice id
func (e *PaymentError) WithInvoice(id uuid.UUID) *PaymentError {
	e.InvoiceID = id
	return e
}

// WithAmount attaches the requested amount
func (e *PaymentError) WithAmount(amount decimal.Decimal) *PaymentError {
	e.RequestedAmount = amount
	return e
}

// Wrap attaches the underlying cause
func (e *PaymentError) Wrap(err error) *PaymentError {
	e.Err = err
	return e
}

// Kind sentinels for errors.Is comparisons
var (
	ErrInvalidInput           = NewPaymentError(KindInvalidInput, "invalid input")
	ErrPartyNotFound          = NewPaymentError(KindPartyNotFound, "party not found")
	ErrInvoiceNotFound        = NewPaymentError(KindInvoiceNotFound, "invoice not found")
	ErrInvoiceNotOwnedByParty = NewPaymentError(KindInvoiceNotOwnedByParty, "invoice does not belong to party")
	ErrInvalidAllocation      = NewPaymentError(KindInvalidAllocation, "invalid allocation")
	ErrConcurrentModification = NewPaymentError(KindConcurrentModification, "invoice was modified concurrently")
	ErrDuplicatePayment       = NewPaymentError(KindDuplicatePayment, "duplicate payment")
	ErrBankAccountUnavailable = NewPaymentError(KindBankAccountUnavailable, "bank account unavailable")
	ErrBankTransactionFailed  = NewPaymentError(KindBankTransactionFailed, "bank transaction failed")
	ErrAuditWriteFailed       = NewPaymentError(KindAuditWriteFailed, "audit write failed")
)

// AsPaymentError extracts a *PaymentError from an error chain
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
