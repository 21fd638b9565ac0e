package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// ledgerSetup wires the ledger services over the postgres test database
type ledgerSetup struct {
	DB             *TestDB
	Orchestrator   *payment.Orchestrator
	Parties        *ledger.PartyService
	Invoices       *ledger.InvoiceService
	Accounts       *ledger.BankAccountService
	Reconciliation *ledger.ReconciliationService
	Publisher      *testutil.RecordingPublisher
}

func newLedgerSetup(t *testing.T) *ledgerSetup {
	t.Helper()
	tdb := NewSharedTestDB(t)
	log := zaptest.NewLogger(t)
	db := tdb.DB

	uow := persistence.NewGormLedgerUnitOfWork(db)
	partyRepo := persistence.NewGormPartyRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	bankTxnRepo := persistence.NewGormBankTransactionRepository(db)
	auditRepo := persistence.NewGormAuditRepository(db)
	publisher := testutil.NewRecordingPublisher()

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	return &ledgerSetup{
		DB: tdb,
		Orchestrator: payment.NewOrchestrator(uow, partyRepo, invoiceRepo, paymentRepo,
			payment.WithBankLedger(persistence.NewGormBankLedger(db), bankTxnRepo),
			payment.WithAuditRepository(auditRepo),
			payment.WithEventPublisher(publisher),
			payment.WithIdempotencyStore(store, time.Hour),
			payment.WithLogger(log),
		),
		Parties:  ledger.NewPartyService(partyRepo, auditRepo, publisher, log),
		Invoices: ledger.NewInvoiceService(uow, partyRepo, invoiceRepo, auditRepo, publisher, log),
		Accounts: ledger.NewBankAccountService(persistence.NewGormBankAccountRepository(db), bankTxnRepo, auditRepo, log),
		Reconciliation: ledger.NewReconciliationService(partyRepo, invoiceRepo, paymentRepo,
			ledger.WithLedgerSnapshot(uow),
			ledger.WithDriftAudit(auditRepo),
			ledger.WithDriftPublisher(publisher),
			ledger.WithReconciliationLogger(log),
		),
		Publisher: publisher,
	}
}

func (s *ledgerSetup) createParty(t *testing.T, partyType string) *ledger.PartyResponse {
	t.Helper()
	party, err := s.Parties.Create(context.Background(), "it", ledger.CreatePartyRequest{
		Code: testutil.PartyCode("P"),
		Name: testutil.CompanyName(),
		Type: partyType,
	})
	require.NoError(t, err)
	return party
}

func (s *ledgerSetup) issueInvoice(t *testing.T, partyID uuid.UUID, kind, total string, dueInDays int) *ledger.InvoiceResponse {
	t.Helper()
	due := time.Now().AddDate(0, 0, dueInDays)
	inv, err := s.Invoices.Issue(context.Background(), "it", ledger.IssueInvoiceRequest{
		PartyID:     partyID,
		Kind:        kind,
		Number:      testutil.InvoiceNumber(),
		TotalAmount: testutil.Money(total),
		DueDate:     &due,
	})
	require.NoError(t, err)
	return inv
}

func TestLedger_PaymentFlowOnPostgres(t *testing.T) {
	s := newLedgerSetup(t)
	ctx := context.Background()

	customer := s.createParty(t, "customer")
	older := s.issueInvoice(t, customer.ID, "sales", "300", 10)
	newer := s.issueInvoice(t, customer.ID, "sales", "200", 30)

	account, err := s.Accounts.Open(ctx, "it", ledger.OpenBankAccountRequest{
		Name:           "Main account",
		Type:           "bank",
		OpeningBalance: testutil.Money("1000"),
	})
	require.NoError(t, err)

	result, err := s.Orchestrator.RecordPayment(ctx, payment.RecordPaymentCommand{
		PartyID:       customer.ID,
		Direction:     finance.DirectionIn,
		Amount:        testutil.Money("400"),
		Mode:          finance.PaymentModeAgainstInvoice,
		BankAccountID: &account.ID,
		Metadata: payment.Metadata{
			Actor:          "cashier",
			Source:         finance.PaymentSourceManual,
			IdempotencyKey: "pg-flow-1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StateCompleted, result.State)
	assert.Empty(t, result.Warnings)
	assert.True(t, testutil.Money("100").Equal(result.PartyBalance), result.PartyBalance.String())

	require.Len(t, result.Payment.Allocations, 2)
	assert.Equal(t, older.ID, result.Payment.Allocations[0].InvoiceID)
	assert.True(t, testutil.Money("300").Equal(result.Payment.Allocations[0].Amount))
	assert.Equal(t, newer.ID, result.Payment.Allocations[1].InvoiceID)
	assert.True(t, testutil.Money("100").Equal(result.Payment.Allocations[1].Amount))

	require.NotNil(t, result.BankTransaction)
	assert.True(t, testutil.Money("1400").Equal(result.BankTransaction.BalanceAfter))

	paidOlder, err := s.Invoices.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", paidOlder.PaymentStatus)
	partialNewer, err := s.Invoices.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "partial", partialNewer.PaymentStatus)
	assert.True(t, testutil.Money("100").Equal(partialNewer.DueAmount))

	t.Run("replay returns the committed payment", func(t *testing.T) {
		replay, err := s.Orchestrator.RecordPayment(ctx, payment.RecordPaymentCommand{
			PartyID:       customer.ID,
			Direction:     finance.DirectionIn,
			Amount:        testutil.Money("400"),
			Mode:          finance.PaymentModeAgainstInvoice,
			BankAccountID: &account.ID,
			Metadata: payment.Metadata{
				Actor:          "cashier",
				Source:         finance.PaymentSourceManual,
				IdempotencyKey: "pg-flow-1",
			},
		})
		require.NoError(t, err)
		assert.True(t, replay.Replayed)
		assert.Equal(t, result.Payment.ID, replay.Payment.ID)

		refreshed, err := s.Parties.GetByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, testutil.Money("100").Equal(refreshed.CurrentBalance))
	})

	t.Run("reconciliation agrees with the stored balance", func(t *testing.T) {
		report, err := s.Reconciliation.ReconcileParty(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, report.Drift.IsZero(), report.Drift.String())
		assert.True(t, testutil.Money("100").Equal(report.Expected))
		assert.Equal(t, 1, report.OpenInvoices)
	})
}

func TestLedger_ConcurrentPaymentsOnOneInvoice(t *testing.T) {
	s := newLedgerSetup(t)
	ctx := context.Background()

	supplier := s.createParty(t, "supplier")
	inv := s.issueInvoice(t, supplier.ID, "purchase", "500", 30)

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		kinds     []finance.ErrorKind
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Orchestrator.RecordPayment(ctx, payment.RecordPaymentCommand{
				PartyID:     supplier.ID,
				Direction:   finance.DirectionOut,
				Amount:      testutil.Money("500"),
				Mode:        finance.PaymentModeAgainstInvoice,
				Allocations: []finance.AllocationRequest{{InvoiceID: inv.ID, Amount: testutil.Money("500")}},
				Metadata:    payment.Metadata{Actor: "it", Source: finance.PaymentSourceManual},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			perr, ok := finance.AsPaymentError(err)
			if !assert.True(t, ok, "unexpected error type: %v", err) {
				return
			}
			kinds = append(kinds, perr.Kind)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, kind := range kinds {
		assert.Contains(t, []finance.ErrorKind{
			finance.KindConcurrentModification,
			finance.KindInvalidAllocation,
		}, kind)
	}

	settled, err := s.Invoices.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, testutil.Money("500").Equal(settled.PaidAmount), settled.PaidAmount.String())
	assert.Equal(t, "paid", settled.PaymentStatus)

	report, err := s.Reconciliation.ReconcileParty(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, report.Drift.IsZero(), "balance drifted by %s", report.Drift)
	assert.True(t, report.Actual.IsZero())
}

func TestLedger_DriftCheckFlagsTamperedBalance(t *testing.T) {
	s := newLedgerSetup(t)
	ctx := context.Background()

	healthy := s.createParty(t, "customer")
	s.issueInvoice(t, healthy.ID, "sales", "250", 30)

	tampered := s.createParty(t, "customer")
	s.issueInvoice(t, tampered.ID, "sales", "250", 30)
	require.NoError(t, s.DB.DB.Exec(
		"UPDATE parties SET current_balance = current_balance - 40 WHERE id = ?", tampered.ID,
	).Error)

	summary, err := s.Reconciliation.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.Drifted, 1)
	assert.Equal(t, tampered.ID, summary.Drifted[0].PartyID)
	assert.True(t, testutil.Money("40").Equal(summary.Drifted[0].Drift.Abs()))

	var audits int64
	require.NoError(t, s.DB.DB.Table("audit_entries").
		Where("resource_id = ? AND severity = ?", tampered.ID, "critical").
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}
