package banking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]BankAccount, int64, error)
	Create(ctx context.Context, account *BankAccount) error

	// SaveWithLock persists descriptive fields and status. Balance is never written here.
	SaveWithLock(ctx context.Context, account *BankAccount) error
}

// BankTransactionRepository reads posted movements
type BankTransactionRepository interface {
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]BankTransaction, int64, error)
	FindByReference(ctx context.Context, refType string, refID uuid.UUID) ([]BankTransaction, error)
}

// Ledger posts movements to accounts
type Ledger interface {
	// Post atomically adds txn.Amount to the account balance, stores the
	// resulting balance in txn.BalanceAfter and inserts txn, all in one short
	// transaction. Returns ErrAccountNotFound or ErrAccountInactive when the
	// account cannot take movements.
	Post(ctx context.Context, txn *BankTransaction) error
}
