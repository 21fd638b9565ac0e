package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PartyRepository defines the interface for party persistence
type PartyRepository interface {
	// FindByID finds a party by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)

	// FindByCode finds a party by its unique code
	FindByCode(ctx context.Context, code string) (*Party, error)

	// FindAll finds parties matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Party, error)

	// FindActive returns every active party
	FindActive(ctx context.Context) ([]Party, error)

	// Create inserts a new party
	Create(ctx context.Context, party *Party) error

	// SaveWithLock persists profile and status changes guarded by the version
	// column. The balance column is never written by this method.
	SaveWithLock(ctx context.Context, party *Party) error

	// AdjustBalance applies a signed delta with a single atomic UPDATE and
	// returns the resulting balance. Returns shared.ErrNotFound for unknown parties.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}
