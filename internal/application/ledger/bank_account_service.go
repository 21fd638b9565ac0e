package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// BankAccountService opens bank and cash accounts and lists their movements
type BankAccountService struct {
	accounts     banking.BankAccountRepository
	transactions banking.BankTransactionRepository
	audits       audit.Repository
	logger       *zap.Logger
}

// NewBankAccountService creates a new BankAccountService
func NewBankAccountService(accounts banking.BankAccountRepository, transactions banking.BankTransactionRepository, audits audit.Repository, l *zap.Logger) *BankAccountService {
	if l == nil {
		l = zap.NewNop()
	}
	return &BankAccountService{
		accounts:     accounts,
		transactions: transactions,
		audits:       audits,
		logger:       l.Named("bank_account"),
	}
}

// Open creates a new account with an opening balance
func (s *BankAccountService) Open(ctx context.Context, actor string, req OpenBankAccountRequest) (*BankAccountResponse, error) {
	account, err := banking.NewBankAccount(req.Name, banking.AccountType(req.Type), req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	if req.AccountNumber != "" || req.BankName != "" {
		if err := account.SetBankDetails(strings.TrimSpace(req.AccountNumber), strings.TrimSpace(req.BankName)); err != nil {
			return nil, err
		}
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to open bank account: %w", err)
	}

	logger.Enrich(ctx, s.logger).Info("Bank account opened",
		zap.String("bank_account_id", account.ID.String()),
		zap.String("type", string(account.Type)),
		zap.String("opening_balance", account.OpeningBalance.String()),
	)
	recordAudit(ctx, s.audits, s.logger, actor, audit.ActionBankAccountOpened, banking.AggregateTypeBankAccount, account.ID, map[string]any{
		"name":            account.Name,
		"type":            string(account.Type),
		"opening_balance": account.OpeningBalance.String(),
	})

	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// GetByID returns an account
func (s *BankAccountService) GetByID(ctx context.Context, id uuid.UUID) (*BankAccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// List returns one page of accounts
func (s *BankAccountService) List(ctx context.Context, page, pageSize int) ([]BankAccountResponse, int64, error) {
	accounts, total, err := s.accounts.FindAll(ctx, pageFilter(page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	out := make([]BankAccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToBankAccountResponse(&accounts[i])
	}
	return out, total, nil
}

// Deactivate closes an account for new movements
func (s *BankAccountService) Deactivate(ctx context.Context, id uuid.UUID) (*BankAccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := account.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.accounts.SaveWithLock(ctx, account); err != nil {
		return nil, err
	}
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// Transactions returns one page of an account's movements, newest first
func (s *BankAccountService) Transactions(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]BankTransactionResponse, int64, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, 0, err
	}
	txns, total, err := s.transactions.FindByAccount(ctx, accountID, pageFilter(page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	out := make([]BankTransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToBankTransactionResponse(&txns[i])
	}
	return out, total, nil
}

func pageFilter(page, pageSize int) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 && pageSize <= 100 {
		f.PageSize = pageSize
	}
	return f
}
