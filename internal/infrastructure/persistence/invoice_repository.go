package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx returns a new repository with the given transaction
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: tx}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds invoices by IDs
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.Invoice, error) {
	if len(ids) == 0 {
		return []finance.Invoice{}, nil
	}
	var ms []models.InvoiceModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(ms), nil
}

// FindOpenByParty finds invoices of a kind that still have something due.
// Ordering for allocation is applied by the domain, not here.
func (r *GormInvoiceRepository) FindOpenByParty(ctx context.Context, partyID uuid.UUID, kind finance.InvoiceKind) ([]finance.Invoice, error) {
	var ms []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("party_id = ? AND kind = ? AND paid_amount < total_amount", partyID, kind).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(ms), nil
}

// FindByParty lists a party's invoices page by page.
// Supported filter keys: kind, open (bool).
func (r *GormInvoiceRepository) FindByParty(ctx context.Context, partyID uuid.UUID, filter shared.Filter) ([]finance.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("party_id = ?", partyID)
	if kind, ok := filter.Filters["kind"]; ok {
		query = query.Where("kind = ?", kind)
	}
	if open, ok := filter.Filters["open"].(bool); ok && open {
		query = query.Where("paid_amount < total_amount")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.InvoiceModel
	if err := applyPage(query, filter, InvoiceSortFields, "invoice_date").Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return models.InvoicesToDomain(ms), total, nil
}

// FindAllByParty returns every invoice of a party
func (r *GormInvoiceRepository) FindAllByParty(ctx context.Context, partyID uuid.UUID) ([]finance.Invoice, error) {
	var ms []models.InvoiceModel
	if err := r.db.WithContext(ctx).Where("party_id = ?", partyID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(ms), nil
}

// ExistsByNumber checks whether an invoice number is already used for a kind
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, kind finance.InvoiceKind, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("kind = ? AND number = ?", kind, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a newly issued invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *finance.Invoice) error {
	if err := r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock persists the paid amount if the stored row still has the
// version and paid amount this copy was read with
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ? AND paid_amount = ?", invoice.ID, invoice.Version-1, invoice.LoadedPaidAmount()).
		Updates(map[string]any{
			"paid_amount": invoice.PaidAmount,
			"notes":       invoice.Notes,
			"version":     invoice.Version,
			"updated_at":  invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
