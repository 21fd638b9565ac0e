package persistence

import (
	"context"
	"database/sql"

	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormLedgerUnitOfWork runs ledger writes in one database transaction
type GormLedgerUnitOfWork struct {
	db       *gorm.DB
	parties  *GormPartyRepository
	invoices *GormInvoiceRepository
	payments *GormPaymentRepository
}

// NewGormLedgerUnitOfWork creates a new GormLedgerUnitOfWork
func NewGormLedgerUnitOfWork(db *gorm.DB) *GormLedgerUnitOfWork {
	return &GormLedgerUnitOfWork{
		db:       db,
		parties:  NewGormPartyRepository(db),
		invoices: NewGormInvoiceRepository(db),
		payments: NewGormPaymentRepository(db),
	}
}

// Execute runs fn inside a transaction. Any error returned by fn, or a
// panic, rolls back every write made through the LedgerTx.
func (u *GormLedgerUnitOfWork) Execute(ctx context.Context, fn func(tx finance.LedgerTx) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTx{
			parties:  u.parties.WithTx(tx),
			invoices: u.invoices.WithTx(tx),
			payments: u.payments.WithTx(tx),
		})
	})
}

// Snapshot runs fn in a read-only transaction. On postgres the transaction
// is REPEATABLE READ so every read sees the same committed state; sqlite
// transactions are serialized already.
func (u *GormLedgerUnitOfWork) Snapshot(ctx context.Context, fn func(tx finance.LedgerTx) error) error {
	var opts []*sql.TxOptions
	if u.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTx{
			parties:  u.parties.WithTx(tx),
			invoices: u.invoices.WithTx(tx),
			payments: u.payments.WithTx(tx),
		})
	}, opts...)
}

type gormLedgerTx struct {
	parties  *GormPartyRepository
	invoices *GormInvoiceRepository
	payments *GormPaymentRepository
}

func (t *gormLedgerTx) Parties() partner.PartyRepository   { return t.parties }
func (t *gormLedgerTx) Invoices() finance.InvoiceRepository { return t.invoices }
func (t *gormLedgerTx) Payments() finance.PaymentRepository { return t.payments }

var (
	_ finance.LedgerUnitOfWork = (*GormLedgerUnitOfWork)(nil)
	_ finance.LedgerSnapshot   = (*GormLedgerUnitOfWork)(nil)
)
