package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopledger/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoice(t *testing.T, partyID uuid.UUID, kind finance.InvoiceKind, total string, due *time.Time) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewInvoice(partyID, kind, testutil.InvoiceNumber(), decimal.RequireFromString(total), time.Now().AddDate(0, 0, -30), due)
	require.NoError(t, err)
	return inv
}

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))
	partyID := uuid.New()

	due := time.Now().AddDate(0, 0, 10).UTC().Truncate(time.Second)
	inv := newInvoice(t, partyID, finance.InvoiceKindSales, "1200.50", &due)
	require.NoError(t, repo.Create(ctx, inv))

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, found.Number)
	assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("1200.50")))
	assert.True(t, found.PaidAmount.IsZero())
	require.NotNil(t, found.DueDate)
	assert.True(t, found.DueDate.Equal(due))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	byIDs, err := repo.FindByIDs(ctx, []uuid.UUID{inv.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormInvoiceRepository_NumberUniquePerKind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))
	partyID := uuid.New()

	sales := newInvoice(t, partyID, finance.InvoiceKindSales, "100", nil)
	require.NoError(t, repo.Create(ctx, sales))

	dup, err := finance.NewInvoice(partyID, finance.InvoiceKindSales, sales.Number, decimal.NewFromInt(5), time.Now(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)

	purchase, err := finance.NewInvoice(partyID, finance.InvoiceKindPurchase, sales.Number, decimal.NewFromInt(5), time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, purchase))

	exists, err := repo.ExistsByNumber(ctx, finance.InvoiceKindSales, sales.Number)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsByNumber(ctx, finance.InvoiceKindSales, "INV-NOPE")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormInvoiceRepository_FindOpenByParty(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))
	partyID := uuid.New()

	open := newInvoice(t, partyID, finance.InvoiceKindSales, "100", nil)
	settled := newInvoice(t, partyID, finance.InvoiceKindSales, "50", nil)
	purchase := newInvoice(t, partyID, finance.InvoiceKindPurchase, "70", nil)
	other := newInvoice(t, uuid.New(), finance.InvoiceKindSales, "80", nil)
	for _, inv := range []*finance.Invoice{open, settled, purchase, other} {
		require.NoError(t, repo.Create(ctx, inv))
	}
	require.NoError(t, settled.ApplyAllocation(decimal.NewFromInt(50), uuid.New()))
	require.NoError(t, repo.SaveWithLock(ctx, settled))

	found, err := repo.FindOpenByParty(ctx, partyID, finance.InvoiceKindSales)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID, found[0].ID)
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))

	inv := newInvoice(t, uuid.New(), finance.InvoiceKindPurchase, "500", nil)
	require.NoError(t, repo.Create(ctx, inv))

	stale, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)

	require.NoError(t, inv.ApplyAllocation(decimal.NewFromInt(200), uuid.New()))
	require.NoError(t, repo.SaveWithLock(ctx, inv))

	require.NoError(t, stale.ApplyAllocation(decimal.NewFromInt(100), uuid.New()))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, found.PaidAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, found.Version)
	assert.Equal(t, finance.PaymentStatusPartial, found.PaymentStatus())
}

func TestGormInvoiceRepository_SaveWithLock_PaidAmountMoved(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)

	inv := newInvoice(t, uuid.New(), finance.InvoiceKindSales, "500", nil)
	require.NoError(t, repo.Create(ctx, inv))

	loaded, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)

	// same version, different paid amount
	require.NoError(t, db.Model(&models.InvoiceModel{}).
		Where("id = ?", inv.ID).
		Update("paid_amount", decimal.NewFromInt(50)).Error)

	require.NoError(t, loaded.ApplyAllocation(decimal.NewFromInt(100), uuid.New()))
	assert.True(t, loaded.LoadedPaidAmount().IsZero())
	assert.ErrorIs(t, repo.SaveWithLock(ctx, loaded), shared.ErrConcurrencyConflict)

	found, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, found.PaidAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, found.Version)
}

func TestGormInvoiceRepository_FindByParty(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))
	partyID := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newInvoice(t, partyID, finance.InvoiceKindSales, "10", nil)))
	}
	require.NoError(t, repo.Create(ctx, newInvoice(t, partyID, finance.InvoiceKindPurchase, "10", nil)))

	page, total, err := repo.FindByParty(ctx, partyID, shared.Filter{
		Page:     2,
		PageSize: 2,
		Filters:  map[string]interface{}{"kind": finance.InvoiceKindSales},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)

	all, err := repo.FindAllByParty(ctx, partyID)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}
