package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBankAccountRepository implements BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by ID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*banking.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists bank accounts. Supported filter keys: type, is_active.
func (r *GormBankAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]banking.BankAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankAccountModel{})
	if t, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", t)
	}
	if active, ok := filter.Filters["is_active"]; ok {
		query = query.Where("is_active = ?", active)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.BankAccountModel
	if err := applyPage(query, filter, BankAccountSortFields, "created_at").Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]banking.BankAccount, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new bank account
func (r *GormBankAccountRepository) Create(ctx context.Context, account *banking.BankAccount) error {
	return r.db.WithContext(ctx).Create(models.BankAccountModelFromDomain(account)).Error
}

// SaveWithLock persists descriptive fields and status guarded by version
func (r *GormBankAccountRepository) SaveWithLock(ctx context.Context, account *banking.BankAccount) error {
	result := r.db.WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]any{
			"name":           account.Name,
			"account_number": account.AccountNumber,
			"bank_name":      account.BankName,
			"is_active":      account.IsActive,
			"version":        account.Version,
			"updated_at":     account.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GormBankTransactionRepository reads posted bank movements
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByAccount lists an account's movements page by page
func (r *GormBankTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]banking.BankTransaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BankTransactionModel{}).
		Where("bank_account_id = ?", accountID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.BankTransactionModel
	if err := applyPage(query, filter, BankTransactionSortFields, "created_at").Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return bankTransactionsToDomain(ms), total, nil
}

// FindByReference returns the movements produced by one source document
func (r *GormBankTransactionRepository) FindByReference(ctx context.Context, refType string, refID uuid.UUID) ([]banking.BankTransaction, error) {
	var ms []models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return bankTransactionsToDomain(ms), nil
}

func bankTransactionsToDomain(ms []models.BankTransactionModel) []banking.BankTransaction {
	out := make([]banking.BankTransaction, len(ms))
	for i := range ms {
		out[i] = *ms[i].ToDomain()
	}
	return out
}

// GormBankLedger posts movements to bank accounts
type GormBankLedger struct {
	db *gorm.DB
}

// NewGormBankLedger creates a new GormBankLedger
func NewGormBankLedger(db *gorm.DB) *GormBankLedger {
	return &GormBankLedger{db: db}
}

// Post applies txn.Amount to the account balance and inserts the movement in
// its own short transaction. The balance UPDATE is a single atomic statement
// guarded by is_active.
func (l *GormBankLedger) Post(ctx context.Context, txn *banking.BankTransaction) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.BankAccountModel{}).
			Where("id = ? AND is_active = ?", txn.BankAccountID, true).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance + ?", txn.Amount),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.BankAccountModel{}).Where("id = ?", txn.BankAccountID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return banking.ErrAccountNotFound
			}
			return banking.ErrAccountInactive
		}

		var account models.BankAccountModel
		if err := tx.Select("balance").Take(&account, "id = ?", txn.BankAccountID).Error; err != nil {
			return err
		}
		txn.BalanceAfter = account.Balance

		return tx.Create(models.BankTransactionModelFromDomain(txn)).Error
	})
}

var (
	_ banking.BankAccountRepository     = (*GormBankAccountRepository)(nil)
	_ banking.BankTransactionRepository = (*GormBankTransactionRepository)(nil)
	_ banking.Ledger                    = (*GormBankLedger)(nil)
)
