package banking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankAccount(t *testing.T) {
	acct, err := NewBankAccount(" Main Current ", AccountTypeBank, decimal.NewFromInt(5000))

	require.NoError(t, err)
	assert.Equal(t, "Main Current", acct.Name)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(5000)))
	assert.True(t, acct.IsActive)

	_, err = NewBankAccount("", AccountTypeCash, decimal.Zero)
	assert.Error(t, err)

	_, err = NewBankAccount("Wallet", AccountType("crypto"), decimal.Zero)
	assert.Error(t, err)
}

func TestBankAccount_SetBankDetails(t *testing.T) {
	cash, err := NewBankAccount("Till", AccountTypeCash, decimal.Zero)
	require.NoError(t, err)
	assert.Error(t, cash.SetBankDetails("0012", "First Bank"))

	bank, err := NewBankAccount("Current", AccountTypeBank, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, bank.SetBankDetails("0012", "First Bank"))
	assert.Equal(t, "0012", bank.AccountNumber)
}

func TestBankAccount_Deactivate(t *testing.T) {
	acct, err := NewBankAccount("Till", AccountTypeCash, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, acct.Deactivate())
	assert.False(t, acct.IsActive)
	assert.Error(t, acct.Deactivate())
}

func TestNewBankTransaction(t *testing.T) {
	accountID := uuid.New()
	refID := uuid.New()

	in, err := NewBankTransaction(accountID, DirectionIn, decimal.NewFromInt(700), TransactionTypePaymentIn, ReferenceTypePayment, refID, "")
	require.NoError(t, err)
	assert.True(t, in.Amount.Equal(decimal.NewFromInt(700)))

	out, err := NewBankTransaction(accountID, DirectionOut, decimal.NewFromInt(700), TransactionTypePaymentOut, ReferenceTypePayment, refID, "")
	require.NoError(t, err)
	assert.True(t, out.Amount.Equal(decimal.NewFromInt(-700)))
	assert.True(t, out.Magnitude().Equal(decimal.NewFromInt(700)))

	out.BalanceAfter = decimal.NewFromInt(300)
	assert.True(t, out.BalanceBefore().Equal(decimal.NewFromInt(1000)))

	_, err = NewBankTransaction(accountID, DirectionIn, decimal.Zero, TransactionTypePaymentIn, ReferenceTypePayment, refID, "")
	assert.Error(t, err)

	_, err = NewBankTransaction(accountID, Direction("up"), decimal.NewFromInt(1), TransactionTypePaymentIn, ReferenceTypePayment, refID, "")
	assert.Error(t, err)

	_, err = NewBankTransaction(uuid.Nil, DirectionIn, decimal.NewFromInt(1), TransactionTypePaymentIn, ReferenceTypePayment, refID, "")
	assert.Error(t, err)
}

func TestNewTransactionRecordedEvent(t *testing.T) {
	txn, err := NewBankTransaction(uuid.New(), DirectionOut, decimal.NewFromInt(250), TransactionTypePaymentOut, ReferenceTypePayment, uuid.New(), "")
	require.NoError(t, err)
	txn.BalanceAfter = decimal.NewFromInt(750)

	evt := NewTransactionRecordedEvent(txn)

	assert.Equal(t, EventTypeBankTransactionRecorded, evt.EventType())
	assert.Equal(t, txn.BankAccountID, evt.AggregateID())
	assert.True(t, evt.Amount.Equal(decimal.NewFromInt(-250)))
	assert.True(t, evt.BalanceAfter.Equal(decimal.NewFromInt(750)))
}
