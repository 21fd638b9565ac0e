package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx returns a new repository with the given transaction
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: tx}
}

func (r *GormPaymentRepository) withAllocations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

// FindByID finds a payment with its allocations
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.withAllocations(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the payment recorded under key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*finance.Payment, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PaymentModel
	if err := r.withAllocations(ctx).First(&model, "idempotency_key = ?", key).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByParty lists a party's payments page by page.
// Supported filter keys: direction.
func (r *GormPaymentRepository) FindByParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]finance.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("party_id = ?", partyID)
	if direction, ok := filter.Filters["direction"]; ok {
		query = query.Where("direction = ?", direction)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.PaymentModel
	query = applyPage(query, filter, PaymentSortFields, "payment_date").Preload("Allocations")
	if err := query.Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(ms), total, nil
}

// FindAllByParty returns every payment of a party
func (r *GormPaymentRepository) FindAllByParty(ctx context.Context, partyID uuid.UUID) ([]finance.Payment, error) {
	var ms []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("party_id = ?", partyID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(ms), nil
}

// Create inserts the payment and its allocation rows. A second payment with
// the same idempotency key violates the unique index and is reported as
// shared.ErrAlreadyExists.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	if err := r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func paymentsToDomain(ms []models.PaymentModel) []finance.Payment {
	out := make([]finance.Payment, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out
}

var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
