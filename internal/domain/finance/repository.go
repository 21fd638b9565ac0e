package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDs finds the invoices with the given IDs. Missing IDs are simply absent.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)

	// FindOpenByParty finds invoices of a kind with a positive due amount
	FindOpenByParty(ctx context.Context, partyID uuid.UUID, kind InvoiceKind) ([]Invoice, error)

	// FindByParty lists a party's invoices page by page
	FindByParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]Invoice, int64, error)

	// FindAllByParty returns every invoice of a party
	FindAllByParty(ctx context.Context, partyID uuid.UUID) ([]Invoice, error)

	// ExistsByNumber checks whether an invoice number is already used for a kind
	ExistsByNumber(ctx context.Context, kind InvoiceKind, number string) (bool, error)

	// Create inserts a newly issued invoice
	Create(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists the paid amount guarded by the version column.
	// The stored version must equal invoice.Version-1, otherwise
	// shared.ErrConcurrencyConflict is returned.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines the interface for payment persistence.
// Payments are insert-only.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIdempotencyKey returns shared.ErrNotFound when no payment uses the key
	FindByIdempotencyKey(ctx context.Context, key string) (*Payment, error)

	FindByParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]Payment, int64, error)

	FindAllByParty(ctx context.Context, partyID uuid.UUID) ([]Payment, error)

	// Create inserts the payment with its allocations. A duplicate idempotency
	// key yields shared.ErrAlreadyExists.
	Create(ctx context.Context, payment *Payment) error
}

// LedgerTx exposes repositories bound to one database transaction
type LedgerTx interface {
	Parties() partner.PartyRepository
	Invoices() InvoiceRepository
	Payments() PaymentRepository
}

// LedgerUnitOfWork runs fn inside one database transaction. Returning an
// error from fn rolls back every write made through the LedgerTx.
type LedgerUnitOfWork interface {
	Execute(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerSnapshot runs read-only fn against one consistent view of the
// ledger: the party row, its invoices and its payments are read as of the
// same moment.
type LedgerSnapshot interface {
	Snapshot(ctx context.Context, fn func(tx LedgerTx) error) error
}
