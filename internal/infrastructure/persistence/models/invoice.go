package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Due amount and payment status are derived and never stored.
type InvoiceModel struct {
	AggregateModel
	Number      string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_kind_number,priority:2"`
	PartyID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Kind        finance.InvoiceKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_invoice_kind_number,priority:1"`
	TotalAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaidAmount  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	InvoiceDate time.Time           `gorm:"not null"`
	DueDate     *time.Time          `gorm:"index"`
	Notes       string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	return &finance.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		PartyID:           m.PartyID,
		Kind:              m.Kind,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		InvoiceDate:       m.InvoiceDate,
		DueDate:           m.DueDate,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.Number = inv.Number
	m.PartyID = inv.PartyID
	m.Kind = inv.Kind
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Notes = inv.Notes
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoicesToDomain converts a slice of models
func InvoicesToDomain(ms []InvoiceModel) []finance.Invoice {
	out := make([]finance.Invoice, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out
}
