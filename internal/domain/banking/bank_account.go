package banking

import (
	"strings"
	"time"

	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountType distinguishes bank accounts from cash drawers
type AccountType string

const (
	AccountTypeBank AccountType = "bank"
	AccountTypeCash AccountType = "cash"
)

// IsValid returns true if the account type is known
func (t AccountType) IsValid() bool {
	return t == AccountTypeBank || t == AccountTypeCash
}

// BankAccount is a bank or cash account whose balance follows payments.
// Balance is only ever changed by posting a BankTransaction.
type BankAccount struct {
	shared.BaseAggregateRoot
	Name           string
	Type           AccountType
	AccountNumber  string
	BankName       string
	OpeningBalance decimal.Decimal
	Balance        decimal.Decimal
	IsActive       bool
}

// NewBankAccount opens a new account with an opening balance
func NewBankAccount(name string, accountType AccountType, openingBalance decimal.Decimal) (*BankAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot exceed 100 characters")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Account type must be 'bank' or 'cash'")
	}

	return &BankAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              accountType,
		OpeningBalance:    openingBalance,
		Balance:           openingBalance,
		IsActive:          true,
	}, nil
}

// SetBankDetails sets the account number and bank name for bank accounts
func (a *BankAccount) SetBankDetails(accountNumber, bankName string) error {
	if a.Type == AccountTypeCash && accountNumber != "" {
		return shared.NewDomainError("INVALID_STATE", "Cash accounts have no account number")
	}
	if len(accountNumber) > 50 {
		return shared.NewDomainError("INVALID_ACCOUNT_NUMBER", "Account number cannot exceed 50 characters")
	}
	a.AccountNumber = accountNumber
	a.BankName = bankName
	a.UpdatedAt = time.Now()
	return nil
}

// Deactivate closes the account for new movements
func (a *BankAccount) Deactivate() error {
	if !a.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Account is already inactive")
	}
	a.IsActive = false
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}
