package banking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction is the direction of money on the account
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// TransactionType classifies what produced a bank movement
type TransactionType string

const (
	TransactionTypePaymentIn  TransactionType = "payment_in"
	TransactionTypePaymentOut TransactionType = "payment_out"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// Reference types for BankTransaction.ReferenceType
const (
	ReferenceTypePayment = "payment"
	ReferenceTypeManual  = "manual"
)

// BankTransaction is an immutable movement on a bank account. Amount is
// signed: positive for money in, negative for money out. BalanceAfter is the
// account balance right after this movement was applied.
type BankTransaction struct {
	ID              uuid.UUID
	BankAccountID   uuid.UUID
	Amount          decimal.Decimal
	Direction       Direction
	BalanceAfter    decimal.Decimal
	TransactionType TransactionType
	ReferenceType   string
	ReferenceID     uuid.UUID
	Description     string
	CreatedAt       time.Time
}

// NewBankTransaction builds a movement for the given account. The magnitude
// must be positive; the sign is derived from the direction.
func NewBankTransaction(accountID uuid.UUID, direction Direction, magnitude decimal.Decimal, txType TransactionType, refType string, refID uuid.UUID, description string) (*BankTransaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Bank account ID cannot be empty")
	}
	if !magnitude.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	amount := magnitude
	switch direction {
	case DirectionIn:
	case DirectionOut:
		amount = magnitude.Neg()
	default:
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Direction must be 'in' or 'out'")
	}

	return &BankTransaction{
		ID:              uuid.New(),
		BankAccountID:   accountID,
		Amount:          amount,
		Direction:       direction,
		TransactionType: txType,
		ReferenceType:   refType,
		ReferenceID:     refID,
		Description:     description,
		CreatedAt:       time.Now(),
	}, nil
}

// Magnitude returns the absolute amount moved
func (t *BankTransaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// BalanceBefore returns the account balance just before the movement
func (t *BankTransaction) BalanceBefore() decimal.Decimal {
	return t.BalanceAfter.Sub(t.Amount)
}
