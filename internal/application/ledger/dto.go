package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Party DTOs
// =============================================================================

// CreatePartyRequest represents a request to onboard a customer or supplier
type CreatePartyRequest struct {
	Code           string          `json:"code" binding:"required,min=1,max=50"`
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	Type           string          `json:"type" binding:"required,oneof=customer supplier"`
	Phone          string          `json:"phone" binding:"max=50"`
	Email          string          `json:"email" binding:"omitempty,email,max=200"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// PartyResponse represents a party in API responses
type PartyResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	IsActive       bool            `json:"is_active"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToPartyResponse converts a domain Party to PartyResponse
func ToPartyResponse(p *partner.Party) PartyResponse {
	return PartyResponse{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Type:           string(p.Type),
		Phone:          p.Phone,
		Email:          p.Email,
		OpeningBalance: p.OpeningBalance,
		CurrentBalance: p.CurrentBalance,
		IsActive:       p.IsActive,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// PartyListFilter represents filter options for the party list
type PartyListFilter struct {
	Type     string `form:"type" binding:"omitempty,oneof=customer supplier"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// =============================================================================
// Invoice DTOs
// =============================================================================

// IssueInvoiceRequest represents a request to issue a sales invoice or purchase bill
type IssueInvoiceRequest struct {
	PartyID     uuid.UUID       `json:"party_id" binding:"required"`
	Kind        string          `json:"kind" binding:"required,oneof=sales purchase"`
	Number      string          `json:"number" binding:"required,min=1,max=50"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
	InvoiceDate *time.Time      `json:"invoice_date"`
	DueDate     *time.Time      `json:"due_date"`
	Notes       string          `json:"notes" binding:"max=500"`
}

// InvoiceResponse represents an invoice in API responses. DueAmount and
// PaymentStatus are derived on every conversion.
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	PartyID       uuid.UUID       `json:"party_id"`
	Kind          string          `json:"kind"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	PaymentStatus string          `json:"payment_status"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Overdue       bool            `json:"overdue"`
	Notes         string          `json:"notes"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *finance.Invoice, now time.Time) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		PartyID:       inv.PartyID,
		Kind:          string(inv.Kind),
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		DueAmount:     inv.DueAmount(),
		PaymentStatus: string(inv.PaymentStatus()),
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Overdue:       inv.IsOverdue(now),
		Notes:         inv.Notes,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
	}
}

// InvoiceListFilter represents filter options for a party's invoices
type InvoiceListFilter struct {
	OpenOnly bool `form:"open"`
	Page     int  `form:"page" binding:"min=0"`
	PageSize int  `form:"page_size" binding:"min=0,max=100"`
}

// =============================================================================
// Bank DTOs
// =============================================================================

// OpenBankAccountRequest represents a request to open a bank or cash account
type OpenBankAccountRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=100"`
	Type           string          `json:"type" binding:"required,oneof=bank cash"`
	AccountNumber  string          `json:"account_number" binding:"max=50"`
	BankName       string          `json:"bank_name" binding:"max=100"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	AccountNumber  string          `json:"account_number"`
	BankName       string          `json:"bank_name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Balance        decimal.Decimal `json:"balance"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToBankAccountResponse converts a domain BankAccount to BankAccountResponse
func ToBankAccountResponse(a *banking.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		AccountNumber:  a.AccountNumber,
		BankName:       a.BankName,
		OpeningBalance: a.OpeningBalance,
		Balance:        a.Balance,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
	}
}

// BankTransactionResponse represents one bank movement
type BankTransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	BankAccountID   uuid.UUID       `json:"bank_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Direction       string          `json:"direction"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	TransactionType string          `json:"transaction_type"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     uuid.UUID       `json:"reference_id"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToBankTransactionResponse converts a domain BankTransaction
func ToBankTransactionResponse(t *banking.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		ID:              t.ID,
		BankAccountID:   t.BankAccountID,
		Amount:          t.Amount,
		Direction:       string(t.Direction),
		BalanceAfter:    t.BalanceAfter,
		TransactionType: string(t.TransactionType),
		ReferenceType:   t.ReferenceType,
		ReferenceID:     t.ReferenceID,
		Description:     t.Description,
		CreatedAt:       t.CreatedAt,
	}
}

// =============================================================================
// Reconciliation DTOs
// =============================================================================

// ReconciliationReport compares a party's stored balance with the balance
// rebuilt from its invoices and payments.
type ReconciliationReport struct {
	PartyID         uuid.UUID       `json:"party_id"`
	PartyCode       string          `json:"party_code"`
	PartyType       string          `json:"party_type"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	InvoicedTotal   decimal.Decimal `json:"invoiced_total"`
	PaymentsDelta   decimal.Decimal `json:"payments_delta"`
	Expected        decimal.Decimal `json:"expected"`
	Actual          decimal.Decimal `json:"actual"`
	Drift           decimal.Decimal `json:"drift"`
	OutstandingDue  decimal.Decimal `json:"outstanding_due"`
	StandingAdvance decimal.Decimal `json:"standing_advance"`
	OpenInvoices    int             `json:"open_invoices"`
	Payments        int             `json:"payments"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// HasDrift reports whether the stored balance disagrees with the rebuilt one
func (r *ReconciliationReport) HasDrift() bool {
	return !r.Drift.IsZero()
}

// DriftSummary is the outcome of checking every active party
type DriftSummary struct {
	Checked  int                    `json:"checked"`
	Drifted  []ReconciliationReport `json:"drifted"`
	Failed   int                    `json:"failed"`
	// Deferred lists the failed parties whose balance kept moving
	Deferred []uuid.UUID            `json:"deferred,omitempty"`
	Duration time.Duration          `json:"duration"`
}

// =============================================================================
// Payment DTOs
// =============================================================================

// PaymentResponse represents a recorded payment in API responses
type PaymentResponse struct {
	ID               uuid.UUID                   `json:"id"`
	Number           string                      `json:"number"`
	PartyID          uuid.UUID                   `json:"party_id"`
	Direction        string                      `json:"direction"`
	Amount           decimal.Decimal             `json:"amount"`
	Mode             string                      `json:"mode"`
	Allocations      []finance.PaymentAllocation `json:"allocations"`
	AdvanceRemainder decimal.Decimal             `json:"advance_remainder"`
	BankAccountID    *uuid.UUID                  `json:"bank_account_id,omitempty"`
	Source           string                      `json:"source"`
	IdempotencyKey   string                      `json:"idempotency_key,omitempty"`
	Actor            string                      `json:"actor"`
	Notes            string                      `json:"notes"`
	PaymentDate      time.Time                   `json:"payment_date"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	allocations := p.Allocations
	if allocations == nil {
		allocations = []finance.PaymentAllocation{}
	}
	return PaymentResponse{
		ID:               p.ID,
		Number:           p.Number,
		PartyID:          p.PartyID,
		Direction:        string(p.Direction),
		Amount:           p.Amount,
		Mode:             string(p.Mode),
		Allocations:      allocations,
		AdvanceRemainder: p.AdvanceRemainder,
		BankAccountID:    p.BankAccountID,
		Source:           string(p.Source),
		IdempotencyKey:   p.IdempotencyKey,
		Actor:            p.Actor,
		Notes:            p.Notes,
		PaymentDate:      p.PaymentDate,
		CreatedAt:        p.CreatedAt,
	}
}
