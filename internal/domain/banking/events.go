package banking

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeBankAccount is the aggregate type for bank events
const AggregateTypeBankAccount = "BankAccount"

// EventTypeBankTransactionRecorded is published after a movement is posted
const EventTypeBankTransactionRecorded = "bank.transaction_recorded"

// TransactionRecordedEvent is published after a movement is posted to an account
type TransactionRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID       `json:"transaction_id"`
	BankAccountID   uuid.UUID       `json:"bank_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	TransactionType TransactionType `json:"transaction_type"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     uuid.UUID       `json:"reference_id"`
}

// NewTransactionRecordedEvent creates a new TransactionRecordedEvent
func NewTransactionRecordedEvent(txn *BankTransaction) *TransactionRecordedEvent {
	return &TransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBankTransactionRecorded, AggregateTypeBankAccount, txn.BankAccountID),
		TransactionID:   txn.ID,
		BankAccountID:   txn.BankAccountID,
		Amount:          txn.Amount,
		BalanceAfter:    txn.BalanceAfter,
		TransactionType: txn.TransactionType,
		ReferenceType:   txn.ReferenceType,
		ReferenceID:     txn.ReferenceID,
	}
}
