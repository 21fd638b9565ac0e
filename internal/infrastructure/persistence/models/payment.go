package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// Rows are insert-only.
type PaymentModel struct {
	AggregateModel
	Number           string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	PartyID          uuid.UUID                `gorm:"type:uuid;not null;index"`
	Direction        finance.Direction        `gorm:"type:varchar(10);not null"`
	Amount           decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Mode             finance.PaymentMode      `gorm:"type:varchar(20);not null"`
	AdvanceRemainder decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	BankAccountID    *uuid.UUID               `gorm:"type:uuid;index"`
	Source           finance.PaymentSource    `gorm:"type:varchar(20);not null;default:'manual'"`
	IdempotencyKey   *string                  `gorm:"type:varchar(100);uniqueIndex"`
	Actor            string                   `gorm:"type:varchar(100)"`
	Notes            string                   `gorm:"type:text"`
	PaymentDate      time.Time                `gorm:"not null;index"`
	Allocations      []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentAllocationModel is one invoice share of a payment
type PaymentAllocationModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNumber string          `gorm:"type:varchar(50);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	p := &finance.Payment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		PartyID:           m.PartyID,
		Direction:         m.Direction,
		Amount:            m.Amount,
		Mode:              m.Mode,
		AdvanceRemainder:  m.AdvanceRemainder,
		BankAccountID:     m.BankAccountID,
		Source:            m.Source,
		Actor:             m.Actor,
		Notes:             m.Notes,
		PaymentDate:       m.PaymentDate,
		Allocations:       make([]finance.PaymentAllocation, 0, len(m.Allocations)),
	}
	if m.IdempotencyKey != nil {
		p.IdempotencyKey = *m.IdempotencyKey
	}
	for _, a := range m.Allocations {
		p.Allocations = append(p.Allocations, finance.PaymentAllocation{
			InvoiceID:     a.InvoiceID,
			InvoiceNumber: a.InvoiceNumber,
			Amount:        a.Amount,
		})
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment.
// An empty idempotency key is stored as NULL so it never collides.
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Number = p.Number
	m.PartyID = p.PartyID
	m.Direction = p.Direction
	m.Amount = p.Amount
	m.Mode = p.Mode
	m.AdvanceRemainder = p.AdvanceRemainder
	m.BankAccountID = p.BankAccountID
	m.Source = p.Source
	m.Actor = p.Actor
	m.Notes = p.Notes
	m.PaymentDate = p.PaymentDate
	m.IdempotencyKey = nil
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		m.IdempotencyKey = &key
	}

	m.Allocations = make([]PaymentAllocationModel, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		m.Allocations = append(m.Allocations, PaymentAllocationModel{
			ID:            uuid.New(),
			PaymentID:     p.ID,
			InvoiceID:     a.InvoiceID,
			InvoiceNumber: a.InvoiceNumber,
			Amount:        a.Amount,
			CreatedAt:     p.CreatedAt,
		})
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
