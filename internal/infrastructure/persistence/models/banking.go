package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopspring/decimal"
)

// BankAccountModel is the persistence model for the BankAccount aggregate root
type BankAccountModel struct {
	AggregateModel
	Name           string              `gorm:"type:varchar(100);not null"`
	Type           banking.AccountType `gorm:"type:varchar(10);not null"`
	AccountNumber  string              `gorm:"type:varchar(50)"`
	BankName       string              `gorm:"type:varchar(100)"`
	OpeningBalance decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Balance        decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive       bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount
func (m *BankAccountModel) ToDomain() *banking.BankAccount {
	return &banking.BankAccount{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Type:              m.Type,
		AccountNumber:     m.AccountNumber,
		BankName:          m.BankName,
		OpeningBalance:    m.OpeningBalance,
		Balance:           m.Balance,
		IsActive:          m.IsActive,
	}
}

// BankAccountModelFromDomain creates a new persistence model from a domain BankAccount
func BankAccountModelFromDomain(a *banking.BankAccount) *BankAccountModel {
	m := &BankAccountModel{
		Name:           a.Name,
		Type:           a.Type,
		AccountNumber:  a.AccountNumber,
		BankName:       a.BankName,
		OpeningBalance: a.OpeningBalance,
		Balance:        a.Balance,
		IsActive:       a.IsActive,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// BankTransactionModel is an immutable movement row
type BankTransactionModel struct {
	ID              uuid.UUID               `gorm:"type:uuid;primaryKey"`
	BankAccountID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Direction       banking.Direction       `gorm:"type:varchar(10);not null"`
	BalanceAfter    decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TransactionType banking.TransactionType `gorm:"type:varchar(20);not null"`
	ReferenceType   string                  `gorm:"type:varchar(20);not null;index:idx_bank_tx_reference,priority:1"`
	ReferenceID     uuid.UUID               `gorm:"type:uuid;not null;index:idx_bank_tx_reference,priority:2"`
	Description     string                  `gorm:"type:varchar(500)"`
	CreatedAt       time.Time               `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain BankTransaction
func (m *BankTransactionModel) ToDomain() *banking.BankTransaction {
	return &banking.BankTransaction{
		ID:              m.ID,
		BankAccountID:   m.BankAccountID,
		Amount:          m.Amount,
		Direction:       m.Direction,
		BalanceAfter:    m.BalanceAfter,
		TransactionType: m.TransactionType,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Description:     m.Description,
		CreatedAt:       m.CreatedAt,
	}
}

// BankTransactionModelFromDomain creates a new persistence model from a domain BankTransaction
func BankTransactionModelFromDomain(t *banking.BankTransaction) *BankTransactionModel {
	return &BankTransactionModel{
		ID:              t.ID,
		BankAccountID:   t.BankAccountID,
		Amount:          t.Amount,
		Direction:       t.Direction,
		BalanceAfter:    t.BalanceAfter,
		TransactionType: t.TransactionType,
		ReferenceType:   t.ReferenceType,
		ReferenceID:     t.ReferenceID,
		Description:     t.Description,
		CreatedAt:       t.CreatedAt,
	}
}
