package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/scheduler"
	"github.com/shopledger/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	uow       *persistence.GormLedgerUnitOfWork
	parties   *persistence.GormPartyRepository
	invoices  *persistence.GormInvoiceRepository
	payments  *persistence.GormPaymentRepository
	accounts  *persistence.GormBankAccountRepository
	bankTxns  *persistence.GormBankTransactionRepository
	audits    *persistence.GormAuditRepository
	publisher *testutil.RecordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, persistence.AutoMigrate(db))
	return &fixture{
		db:        db,
		uow:       persistence.NewGormLedgerUnitOfWork(db),
		parties:   persistence.NewGormPartyRepository(db),
		invoices:  persistence.NewGormInvoiceRepository(db),
		payments:  persistence.NewGormPaymentRepository(db),
		accounts:  persistence.NewGormBankAccountRepository(db),
		bankTxns:  persistence.NewGormBankTransactionRepository(db),
		audits:    persistence.NewGormAuditRepository(db),
		publisher: testutil.NewRecordingPublisher(),
	}
}

func (f *fixture) partyService(t *testing.T) *PartyService {
	return NewPartyService(f.parties, f.audits, f.publisher, zaptest.NewLogger(t))
}

func (f *fixture) invoiceService(t *testing.T) *InvoiceService {
	return NewInvoiceService(f.uow, f.parties, f.invoices, f.audits, f.publisher, zaptest.NewLogger(t))
}

func (f *fixture) reconciliation(t *testing.T) *ReconciliationService {
	return NewReconciliationService(f.parties, f.invoices, f.payments,
		WithDriftAudit(f.audits),
		WithDriftPublisher(f.publisher),
		WithReconciliationLogger(zaptest.NewLogger(t)),
	)
}

func (f *fixture) orchestrator(t *testing.T) *payment.Orchestrator {
	return payment.NewOrchestrator(f.uow, f.parties, f.invoices, f.payments, payment.WithLogger(zaptest.NewLogger(t)))
}

func (f *fixture) onboard(t *testing.T, partyType string, opening string) *PartyResponse {
	t.Helper()
	resp, err := f.partyService(t).Create(context.Background(), "owner", CreatePartyRequest{
		Code:           testutil.PartyCode("P"),
		Name:           testutil.CompanyName(),
		Type:           partyType,
		OpeningBalance: testutil.Money(opening),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) issue(t *testing.T, party *PartyResponse, total string) *InvoiceResponse {
	t.Helper()
	kind := string(finance.InvoiceKindSales)
	if party.Type == string(partner.PartyTypeSupplier) {
		kind = string(finance.InvoiceKindPurchase)
	}
	due := time.Now().AddDate(0, 0, 15)
	resp, err := f.invoiceService(t).Issue(context.Background(), "owner", IssueInvoiceRequest{
		PartyID:     party.ID,
		Kind:        kind,
		Number:      testutil.InvoiceNumber(),
		TotalAmount: testutil.Money(total),
		DueDate:     &due,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) pay(t *testing.T, party *PartyResponse, amount string, invoices ...uuid.UUID) {
	t.Helper()
	cmd := payment.RecordPaymentCommand{
		PartyID:   party.ID,
		Direction: finance.DirectionIn,
		Amount:    testutil.Money(amount),
		Mode:      finance.PaymentModeAgainstInvoice,
	}
	if party.Type == string(partner.PartyTypeSupplier) {
		cmd.Direction = finance.DirectionOut
	}
	for _, id := range invoices {
		cmd.Allocations = append(cmd.Allocations, finance.AllocationRequest{InvoiceID: id})
	}
	_, err := f.orchestrator(t).RecordPayment(context.Background(), cmd)
	require.NoError(t, err)
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, testutil.Money(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

// -----------------------------------------------------------------------------
// PartyService
// -----------------------------------------------------------------------------

func TestPartyService_Create(t *testing.T) {
	f := newFixture(t)

	resp, err := f.partyService(t).Create(context.Background(), "owner", CreatePartyRequest{
		Code:           " cust-001 ",
		Name:           "Acme Traders",
		Type:           "customer",
		Phone:          "+91 98450 00000",
		OpeningBalance: testutil.Money("250"),
	})
	require.NoError(t, err)

	assert.Equal(t, "CUST-001", resp.Code)
	assert.True(t, resp.IsActive)
	assertMoney(t, "250", resp.CurrentBalance)
	assert.Equal(t, 1, f.publisher.CountOf(partner.EventTypePartyCreated))

	entries, err := f.audits.FindByResource(context.Background(), partner.AggregateTypeParty, resp.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionPartyOnboarded, entries[0].Action)
	assert.Equal(t, "owner", entries[0].Actor)
}

func TestPartyService_Create_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	svc := f.partyService(t)
	req := CreatePartyRequest{Code: "SUP-9", Name: "Mill Supplies", Type: "supplier"}

	_, err := svc.Create(context.Background(), "owner", req)
	require.NoError(t, err)

	req.Code = "sup-9"
	_, err = svc.Create(context.Background(), "owner", req)
	requireCode(t, err, "ALREADY_EXISTS")
}

func TestPartyService_Create_InvalidType(t *testing.T) {
	f := newFixture(t)
	_, err := f.partyService(t).Create(context.Background(), "owner", CreatePartyRequest{
		Code: "X-1", Name: "Nobody", Type: "employee",
	})
	requireCode(t, err, "INVALID_TYPE")
}

func TestPartyService_Deactivate(t *testing.T) {
	f := newFixture(t)
	created := f.onboard(t, "customer", "0")

	resp, err := f.partyService(t).Deactivate(context.Background(), "owner", created.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Equal(t, created.Version+1, resp.Version)
	assert.Equal(t, 1, f.publisher.CountOf(partner.EventTypePartyStatusChanged))

	_, err = f.invoiceService(t).Issue(context.Background(), "owner", IssueInvoiceRequest{
		PartyID: created.ID, Kind: "sales", Number: "INV-X", TotalAmount: testutil.Money("10"),
	})
	assert.ErrorIs(t, err, shared.ErrInactive)
}

func TestPartyService_List(t *testing.T) {
	f := newFixture(t)
	f.onboard(t, "customer", "0")
	f.onboard(t, "customer", "0")
	f.onboard(t, "supplier", "0")

	customers, err := f.partyService(t).List(context.Background(), PartyListFilter{Type: "customer"})
	require.NoError(t, err)
	assert.Len(t, customers, 2)

	all, err := f.partyService(t).List(context.Background(), PartyListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPartyService_GetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.partyService(t).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// -----------------------------------------------------------------------------
// InvoiceService
// -----------------------------------------------------------------------------

func TestInvoiceService_Issue_RaisesBalance(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "100")

	inv := f.issue(t, customer, "1180")
	assert.Equal(t, string(finance.PaymentStatusPending), inv.PaymentStatus)
	assertMoney(t, "1180", inv.DueAmount)
	assert.False(t, inv.Overdue)

	party, err := f.parties.FindByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assertMoney(t, "1280", party.CurrentBalance)

	assert.Equal(t, 1, f.publisher.CountOf(finance.EventTypeInvoiceIssued))
	assert.Equal(t, 1, f.publisher.CountOf(partner.EventTypePartyBalanceChanged))
}

func TestInvoiceService_Issue_KindMustMatchPartyType(t *testing.T) {
	f := newFixture(t)
	supplier := f.onboard(t, "supplier", "0")

	_, err := f.invoiceService(t).Issue(context.Background(), "owner", IssueInvoiceRequest{
		PartyID: supplier.ID, Kind: "sales", Number: "INV-1", TotalAmount: testutil.Money("10"),
	})
	requireCode(t, err, "KIND_MISMATCH")
}

func TestInvoiceService_Issue_DuplicateNumber(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "0")
	svc := f.invoiceService(t)
	req := IssueInvoiceRequest{PartyID: customer.ID, Kind: "sales", Number: "INV-77", TotalAmount: testutil.Money("10")}

	_, err := svc.Issue(context.Background(), "owner", req)
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), "owner", req)
	requireCode(t, err, "ALREADY_EXISTS")

	party, err := f.parties.FindByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assertMoney(t, "10", party.CurrentBalance)
}

func TestInvoiceService_Issue_UnknownParty(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoiceService(t).Issue(context.Background(), "owner", IssueInvoiceRequest{
		PartyID: uuid.New(), Kind: "sales", Number: "INV-1", TotalAmount: testutil.Money("10"),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceService_ListByParty_OpenOnly(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "0")
	settled := f.issue(t, customer, "300")
	f.issue(t, customer, "200")
	f.pay(t, customer, "300", settled.ID)

	all, total, err := f.invoiceService(t).ListByParty(context.Background(), customer.ID, InvoiceListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	open, total, err := f.invoiceService(t).ListByParty(context.Background(), customer.ID, InvoiceListFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, open, 1)
	assertMoney(t, "200", open[0].DueAmount)
}

// -----------------------------------------------------------------------------
// BankAccountService
// -----------------------------------------------------------------------------

func TestBankAccountService_OpenAndDeactivate(t *testing.T) {
	f := newFixture(t)
	svc := NewBankAccountService(f.accounts, f.bankTxns, f.audits, zaptest.NewLogger(t))

	opened, err := svc.Open(context.Background(), "owner", OpenBankAccountRequest{
		Name:           "Current Account",
		Type:           "bank",
		AccountNumber:  " 001122 ",
		BankName:       "State Bank",
		OpeningBalance: testutil.Money("5000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "001122", opened.AccountNumber)
	assertMoney(t, "5000", opened.Balance)

	list, total, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	txns, total, err := svc.Transactions(context.Background(), opened.ID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txns)

	closed, err := svc.Deactivate(context.Background(), opened.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)

	entries, err := f.audits.FindByResource(context.Background(), banking.AggregateTypeBankAccount, opened.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBankAccountService_Transactions_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	svc := NewBankAccountService(f.accounts, f.bankTxns, nil, nil)
	_, _, err := svc.Transactions(context.Background(), uuid.New(), 1, 20)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// -----------------------------------------------------------------------------
// ReconciliationService
// -----------------------------------------------------------------------------

func TestReconcileParty_Balanced(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "100")
	first := f.issue(t, customer, "1180")
	f.issue(t, customer, "500")
	f.pay(t, customer, "700", first.ID)

	report, err := f.reconciliation(t).ReconcileParty(context.Background(), customer.ID)
	require.NoError(t, err)

	assertMoney(t, "1680", report.InvoicedTotal)
	assertMoney(t, "-700", report.PaymentsDelta)
	assertMoney(t, "1080", report.Expected)
	assertMoney(t, "1080", report.Actual)
	assertMoney(t, "0", report.Drift)
	assertMoney(t, "980", report.OutstandingDue)
	assertMoney(t, "0", report.StandingAdvance)
	assert.Equal(t, 2, report.OpenInvoices)
	assert.Equal(t, 1, report.Payments)
	assert.False(t, report.HasDrift())
}

func TestReconcileParty_StandingAdvance(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "0")
	inv := f.issue(t, customer, "1180")
	f.pay(t, customer, "2000", inv.ID)

	report, err := f.reconciliation(t).ReconcileParty(context.Background(), customer.ID)
	require.NoError(t, err)

	assertMoney(t, "-820", report.Actual)
	assertMoney(t, "0", report.Drift)
	assertMoney(t, "0", report.OutstandingDue)
	assertMoney(t, "820", report.StandingAdvance)
}

func TestReconcileParty_Supplier(t *testing.T) {
	f := newFixture(t)
	supplier := f.onboard(t, "supplier", "0")
	bill := f.issue(t, supplier, "900")
	f.pay(t, supplier, "400", bill.ID)

	report, err := f.reconciliation(t).ReconcileParty(context.Background(), supplier.ID)
	require.NoError(t, err)
	assertMoney(t, "500", report.Expected)
	assertMoney(t, "500", report.Actual)
	assertMoney(t, "500", report.OutstandingDue)
	assert.False(t, report.HasDrift())
}

func TestReconcileParty_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.reconciliation(t).ReconcileParty(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckAll_ReportsDrift(t *testing.T) {
	f := newFixture(t)
	clean := f.onboard(t, "customer", "0")
	f.issue(t, clean, "300")
	drifted := f.onboard(t, "customer", "0")
	f.issue(t, drifted, "300")

	// a balance write that bypasses the ledger
	_, err := f.parties.AdjustBalance(context.Background(), drifted.ID, testutil.Money("25"))
	require.NoError(t, err)

	summary, err := f.reconciliation(t).CheckAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Checked)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.Drifted, 1)
	assert.Equal(t, drifted.ID, summary.Drifted[0].PartyID)
	assertMoney(t, "25", summary.Drifted[0].Drift)
	assert.Equal(t, 1, f.publisher.CountOf(finance.EventTypeLedgerDriftDetected))

	entries, err := f.audits.FindByResource(context.Background(), partner.AggregateTypeParty, drifted.ID)
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if e.Action == audit.ActionLedgerDriftDetected {
			found = true
			assert.Equal(t, audit.SeverityCritical, e.Severity)
		}
	}
	assert.True(t, found)
}

// landingParties commits a payment right after the active party list is read
type landingParties struct {
	partner.PartyRepository
	land func()
}

func (r *landingParties) FindActive(ctx context.Context) ([]partner.Party, error) {
	parties, err := r.PartyRepository.FindActive(ctx)
	if r.land != nil {
		r.land()
		r.land = nil
	}
	return parties, err
}

// landingInvoices runs land before every invoice read
type landingInvoices struct {
	finance.InvoiceRepository
	land func()
}

func (r *landingInvoices) FindAllByParty(ctx context.Context, partyID uuid.UUID) ([]finance.Invoice, error) {
	if r.land != nil {
		r.land()
	}
	return r.InvoiceRepository.FindAllByParty(ctx, partyID)
}

func TestCheckAll_PaymentDuringCheckIsNotDrift(t *testing.T) {
	tests := []struct {
		name     string
		snapshot bool
	}{
		{"snapshot reads", true},
		{"balance re-reads", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			customer := f.onboard(t, "customer", "0")
			inv := f.issue(t, customer, "1000")

			parties := &landingParties{
				PartyRepository: f.parties,
				land:            func() { f.pay(t, customer, "400", inv.ID) },
			}
			opts := []ReconciliationOption{
				WithDriftAudit(f.audits),
				WithDriftPublisher(f.publisher),
				WithReconciliationLogger(zaptest.NewLogger(t)),
			}
			if tt.snapshot {
				opts = append(opts, WithLedgerSnapshot(f.uow))
			}
			svc := NewReconciliationService(parties, f.invoices, f.payments, opts...)

			summary, err := svc.CheckAll(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 1, summary.Checked)
			assert.Empty(t, summary.Drifted)
			assert.Zero(t, f.publisher.CountOf(finance.EventTypeLedgerDriftDetected))

			entries, err := f.audits.FindByResource(context.Background(), partner.AggregateTypeParty, customer.ID)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotEqual(t, audit.ActionLedgerDriftDetected, e.Action)
			}
		})
	}
}

func TestReconcileParty_RereadsBalanceThatMoved(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "0")
	inv := f.issue(t, customer, "1000")

	landed := false
	invoices := &landingInvoices{
		InvoiceRepository: f.invoices,
		land: func() {
			if !landed {
				landed = true
				f.pay(t, customer, "400", inv.ID)
			}
		},
	}
	svc := NewReconciliationService(f.parties, invoices, f.payments, WithReconciliationLogger(zaptest.NewLogger(t)))

	report, err := svc.ReconcileParty(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.True(t, report.Drift.IsZero(), report.Drift.String())
	assertMoney(t, "600", report.Actual)
	assert.Equal(t, 1, report.Payments)
}

func TestReconcileParty_BalanceThatNeverSettles(t *testing.T) {
	f := newFixture(t)
	customer := f.onboard(t, "customer", "0")

	invoices := &landingInvoices{
		InvoiceRepository: f.invoices,
		land: func() {
			_, err := f.parties.AdjustBalance(context.Background(), customer.ID, testutil.Money("1"))
			require.NoError(t, err)
		},
	}
	svc := NewReconciliationService(f.parties, invoices, f.payments)

	_, err := svc.ReconcileParty(context.Background(), customer.ID)
	assert.ErrorIs(t, err, errBalanceMoving)
}

func TestCheckAll_SkipsInactiveParties(t *testing.T) {
	f := newFixture(t)
	p := f.onboard(t, "customer", "0")
	_, err := f.parties.AdjustBalance(context.Background(), p.ID, testutil.Money("10"))
	require.NoError(t, err)
	_, err = f.partyService(t).Deactivate(context.Background(), "owner", p.ID)
	require.NoError(t, err)

	summary, err := f.reconciliation(t).CheckAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Checked)
	assert.Empty(t, summary.Drifted)
}

func TestJobExecutor_ReconcileParty(t *testing.T) {
	f := newFixture(t)
	p := f.onboard(t, "customer", "0")
	_, err := f.parties.AdjustBalance(context.Background(), p.ID, testutil.Money("5"))
	require.NoError(t, err)

	exec := NewJobExecutor(f.reconciliation(t))
	require.NoError(t, exec.Execute(context.Background(), scheduler.NewJob(scheduler.JobKindReconcileParty, &p.ID, 0)))
	assert.Equal(t, 1, f.publisher.CountOf(finance.EventTypeLedgerDriftDetected))

	require.NoError(t, exec.Execute(context.Background(), scheduler.NewJob(scheduler.JobKindDriftCheck, nil, 0)))
	assert.Equal(t, 2, f.publisher.CountOf(finance.EventTypeLedgerDriftDetected))

	missing := uuid.New()
	assert.ErrorIs(t, exec.Execute(context.Background(), scheduler.NewJob(scheduler.JobKindReconcileParty, &missing, 0)), shared.ErrNotFound)
	assert.Error(t, exec.Execute(context.Background(), scheduler.NewJob(scheduler.JobKindReconcileParty, nil, 0)))
}

type scheduledJob struct {
	kind    scheduler.JobKind
	partyID uuid.UUID
}

type recordingScheduler struct {
	jobs []scheduledJob
	err  error
}

func (s *recordingScheduler) Schedule(kind scheduler.JobKind, partyID *uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, scheduledJob{kind: kind, partyID: *partyID})
	return nil
}

func TestJobExecutor_DriftCheckSchedulesDeferredParties(t *testing.T) {
	f := newFixture(t)
	steady := f.onboard(t, "customer", "10")
	moving := f.onboard(t, "customer", "0")

	invoices := &landingInvoices{
		InvoiceRepository: f.invoices,
		land: func() {
			_, err := f.parties.AdjustBalance(context.Background(), moving.ID, testutil.Money("1"))
			require.NoError(t, err)
		},
	}
	svc := NewReconciliationService(f.parties, invoices, f.payments,
		WithDriftPublisher(f.publisher),
		WithReconciliationLogger(zaptest.NewLogger(t)),
	)

	summary, err := svc.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []uuid.UUID{moving.ID}, summary.Deferred)

	rechecks := &recordingScheduler{}
	exec := NewJobExecutor(svc)
	exec.ScheduleRechecksOn(rechecks)
	require.NoError(t, exec.Execute(context.Background(), scheduler.NewJob(scheduler.JobKindDriftCheck, nil, 0)))
	assert.Equal(t, []scheduledJob{{kind: scheduler.JobKindReconcileParty, partyID: moving.ID}}, rechecks.jobs)
	assert.NotContains(t, rechecks.jobs, scheduledJob{kind: scheduler.JobKindReconcileParty, partyID: steady.ID})

	t.Run("already queued re-check is not an error", func(t *testing.T) {
		exec.ScheduleRechecksOn(&recordingScheduler{err: scheduler.ErrJobAlreadyQueued})
		assert.NoError(t, exec.Execute(context.Background(), scheduler.NewJob(scheduler.JobKindDriftCheck, nil, 0)))
	})

	t.Run("without a scheduler nothing is queued", func(t *testing.T) {
		assert.NoError(t, NewJobExecutor(svc).Execute(context.Background(), scheduler.NewJob(scheduler.JobKindDriftCheck, nil, 0)))
	})
}

// -----------------------------------------------------------------------------
// PaymentQueryService
// -----------------------------------------------------------------------------

func TestPaymentQueryService_ListAndGet(t *testing.T) {
	f := newFixture(t)
	party := f.onboard(t, "customer", "0")
	inv := f.issue(t, party, "500")
	f.pay(t, party, "200", inv.ID)

	svc := NewPaymentQueryService(f.parties, f.payments)
	list, total, err := svc.ListByParty(context.Background(), party.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "in", list[0].Direction)
	require.Len(t, list[0].Allocations, 1)
	assertMoney(t, "200", list[0].Allocations[0].Amount)

	got, err := svc.GetByID(context.Background(), list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0].Number, got.Number)

	_, _, err = svc.ListByParty(context.Background(), uuid.New(), 1, 20)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
