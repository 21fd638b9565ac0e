package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPartyRepository implements PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// WithTx returns a new repository with the given transaction
func (r *GormPartyRepository) WithTx(tx *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: tx}
}

// FindByID finds a party by ID
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a party by its code
func (r *GormPartyRepository) FindByCode(ctx context.Context, code string) (*partner.Party, error) {
	var model models.PartyModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", strings.ToUpper(code)).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds parties matching the filter. Supported filter keys: type, is_active.
func (r *GormPartyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Party, error) {
	query := r.db.WithContext(ctx).Model(&models.PartyModel{})
	if t, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", t)
	}
	if active, ok := filter.Filters["is_active"]; ok {
		query = query.Where("is_active = ?", active)
	}
	query = applyPage(query, filter, PartySortFields, "created_at")

	var ms []models.PartyModel
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return partiesToDomain(ms), nil
}

// FindActive returns every active party ordered by code
func (r *GormPartyRepository) FindActive(ctx context.Context) ([]partner.Party, error) {
	var ms []models.PartyModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("code ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return partiesToDomain(ms), nil
}

// Create inserts a new party
func (r *GormPartyRepository) Create(ctx context.Context, party *partner.Party) error {
	if err := r.db.WithContext(ctx).Create(models.PartyModelFromDomain(party)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock persists profile and status fields guarded by the version column
func (r *GormPartyRepository) SaveWithLock(ctx context.Context, party *partner.Party) error {
	result := r.db.WithContext(ctx).
		Model(&models.PartyModel{}).
		Where("id = ? AND version = ?", party.ID, party.Version-1).
		Updates(map[string]any{
			"name":       party.Name,
			"phone":      party.Phone,
			"email":      party.Email,
			"is_active":  party.IsActive,
			"version":    party.Version,
			"updated_at": party.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// AdjustBalance adds delta to the stored balance in one UPDATE, so two
// concurrent adjustments can never overwrite each other.
func (r *GormPartyRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.PartyModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_balance": gorm.Expr("current_balance + ?", delta),
			"updated_at":      gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, shared.ErrNotFound
	}

	var model models.PartyModel
	if err := db.Select("current_balance").Take(&model, "id = ?", id).Error; err != nil {
		return decimal.Zero, translateNotFound(err)
	}
	return model.CurrentBalance, nil
}

func partiesToDomain(ms []models.PartyModel) []partner.Party {
	out := make([]partner.Party, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out
}

var _ partner.PartyRepository = (*GormPartyRepository)(nil)
