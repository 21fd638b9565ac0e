package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationService rebuilds party balances from invoices and payments
// and compares them with the stored running balance.
type ReconciliationService struct {
	parties   partner.PartyRepository
	invoices  finance.InvoiceRepository
	payments  finance.PaymentRepository
	snapshot  finance.LedgerSnapshot
	audits    audit.Repository
	publisher shared.EventPublisher
	recorder  telemetry.LedgerRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// ReconciliationOption configures a ReconciliationService
type ReconciliationOption func(*ReconciliationService)

// WithLedgerSnapshot reads each party's balance, invoices and payments in
// one consistent snapshot. Without it the service re-reads the balance and
// retries while payments are landing.
func WithLedgerSnapshot(snapshot finance.LedgerSnapshot) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.snapshot = snapshot
	}
}

// WithDriftAudit writes a critical audit entry for every drifted party
func WithDriftAudit(repo audit.Repository) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.audits = repo
	}
}

// WithDriftPublisher publishes ledger.drift_detected events
func WithDriftPublisher(publisher shared.EventPublisher) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.publisher = publisher
	}
}

// WithDriftRecorder records drift check metrics
func WithDriftRecorder(recorder telemetry.LedgerRecorder) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.recorder = recorder
	}
}

// WithReconciliationLogger sets the logger
func WithReconciliationLogger(l *zap.Logger) ReconciliationOption {
	return func(s *ReconciliationService) {
		s.logger = l
	}
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	parties partner.PartyRepository,
	invoices finance.InvoiceRepository,
	payments finance.PaymentRepository,
	opts ...ReconciliationOption,
) *ReconciliationService {
	s := &ReconciliationService{
		parties:  parties,
		invoices: invoices,
		payments: payments,
		recorder: telemetry.NopRecorder{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("reconciliation")
	return s
}

// ReconcileParty compares one party's stored balance with
// opening + invoiced totals + signed payment deltas.
func (s *ReconciliationService) ReconcileParty(ctx context.Context, partyID uuid.UUID) (*ReconciliationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "reconcile_party",
		telemetry.WithAttribute(telemetry.SpanAttrPartyID, partyID.String()))
	defer span.End()

	report, err := s.reconcile(ctx, partyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "drift", report.Drift.String())
	telemetry.SetOK(span)
	return report, nil
}

// maxBalanceReads bounds the re-reads of a balance that keeps moving
const maxBalanceReads = 3

// errBalanceMoving is returned when payments kept landing on a party
// during every read attempt
var errBalanceMoving = errors.New("party balance changed during every reconciliation read")

// ledgerView is one party's balance row with the invoices and payments it
// must agree with
type ledgerView struct {
	party    *partner.Party
	invoices []finance.Invoice
	payments []finance.Payment
}

func readLedger(ctx context.Context, parties partner.PartyRepository, invoices finance.InvoiceRepository,
	payments finance.PaymentRepository, partyID uuid.UUID) (*ledgerView, error) {
	party, err := parties.FindByID(ctx, partyID)
	if err != nil {
		return nil, err
	}
	view := &ledgerView{party: party}
	if view.invoices, err = invoices.FindAllByParty(ctx, partyID); err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	if view.payments, err = payments.FindAllByParty(ctx, partyID); err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return view, nil
}

// load returns a view in which the balance and the documents describe the
// same committed state. Payments and invoices commit together with their
// balance delta, so an unchanged balance across the reads means nothing
// landed in between.
func (s *ReconciliationService) load(ctx context.Context, partyID uuid.UUID) (*ledgerView, error) {
	if s.snapshot != nil {
		var view *ledgerView
		err := s.snapshot.Snapshot(ctx, func(tx finance.LedgerTx) error {
			var err error
			view, err = readLedger(ctx, tx.Parties(), tx.Invoices(), tx.Payments(), partyID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return view, nil
	}

	for attempt := 0; attempt < maxBalanceReads; attempt++ {
		view, err := readLedger(ctx, s.parties, s.invoices, s.payments, partyID)
		if err != nil {
			return nil, err
		}
		after, err := s.parties.FindByID(ctx, partyID)
		if err != nil {
			return nil, err
		}
		if after.CurrentBalance.Equal(view.party.CurrentBalance) {
			return view, nil
		}
	}
	return nil, errBalanceMoving
}

func (s *ReconciliationService) reconcile(ctx context.Context, partyID uuid.UUID) (*ReconciliationReport, error) {
	view, err := s.load(ctx, partyID)
	if err != nil {
		return nil, err
	}
	party, invoices, payments := view.party, view.invoices, view.payments

	report := &ReconciliationReport{
		PartyID:        party.ID,
		PartyCode:      party.Code,
		PartyType:      string(party.Type),
		OpeningBalance: party.OpeningBalance,
		InvoicedTotal:  decimal.Zero,
		PaymentsDelta:  decimal.Zero,
		OutstandingDue: decimal.Zero,
		Actual:         party.CurrentBalance,
		Payments:       len(payments),
		CheckedAt:      s.now(),
	}
	for i := range invoices {
		inv := &invoices[i]
		report.InvoicedTotal = report.InvoicedTotal.Add(inv.TotalAmount)
		if due := inv.DueAmount(); due.IsPositive() {
			report.OutstandingDue = report.OutstandingDue.Add(due)
			report.OpenInvoices++
		}
	}
	for i := range payments {
		report.PaymentsDelta = report.PaymentsDelta.Add(payments[i].BalanceDelta(party.Type))
	}

	report.Expected = report.OpeningBalance.Add(report.InvoicedTotal).Add(report.PaymentsDelta)
	report.Drift = report.Actual.Sub(report.Expected)
	report.StandingAdvance = decimal.Max(decimal.Zero, report.OutstandingDue.Sub(report.Actual))
	return report, nil
}

// CheckAll reconciles every active party. The party list only selects who
// is checked; each balance is read again together with its documents.
// Drifted parties are logged, audited and announced with a
// ledger.drift_detected event. A party that fails to load is counted and
// skipped; one whose balance kept moving is also listed in Deferred.
func (s *ReconciliationService) CheckAll(ctx context.Context) (*DriftSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "drift_check")
	defer span.End()

	start := s.now()
	parties, err := s.parties.FindActive(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list active parties: %w", err)
	}

	summary := &DriftSummary{Drifted: []ReconciliationReport{}}
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationDriftCheck, nil), func(c context.Context) {
		for i := range parties {
			if c.Err() != nil {
				return
			}
			party := &parties[i]
			report, err := s.reconcile(c, party.ID)
			if err != nil {
				summary.Failed++
				if errors.Is(err, errBalanceMoving) {
					summary.Deferred = append(summary.Deferred, party.ID)
				}
				logger.Enrich(c, s.logger).Warn("Reconciliation failed",
					zap.String("party_id", party.ID.String()),
					zap.Error(err),
				)
				continue
			}
			summary.Checked++
			if report.HasDrift() {
				summary.Drifted = append(summary.Drifted, *report)
				s.reportDrift(c, report)
			}
		}
	})
	summary.Duration = s.now().Sub(start)

	s.recorder.DriftCheckCompleted(ctx, summary.Checked, len(summary.Drifted), summary.Duration)
	telemetry.SetAttributes(span,
		"checked", summary.Checked,
		"drifted", len(summary.Drifted),
		"failed", summary.Failed,
	)
	telemetry.SetOK(span)

	logger.Enrich(ctx, s.logger).Info("Drift check completed",
		zap.Int("checked", summary.Checked),
		zap.Int("drifted", len(summary.Drifted)),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Duration),
	)
	return summary, ctx.Err()
}

func (s *ReconciliationService) reportDrift(ctx context.Context, report *ReconciliationReport) {
	logger.Enrich(ctx, s.logger).Error("Ledger drift detected",
		zap.String("party_id", report.PartyID.String()),
		zap.String("party_code", report.PartyCode),
		zap.String("expected", report.Expected.String()),
		zap.String("actual", report.Actual.String()),
		zap.String("drift", report.Drift.String()),
	)
	recordAuditWithSeverity(ctx, s.audits, s.logger, "system", audit.ActionLedgerDriftDetected, audit.SeverityCritical,
		partner.AggregateTypeParty, report.PartyID, map[string]any{
			"expected": report.Expected.String(),
			"actual":   report.Actual.String(),
			"drift":    report.Drift.String(),
		})
	publish(ctx, s.publisher, s.logger, finance.NewLedgerDriftDetectedEvent(report.PartyID, report.Expected, report.Actual))
}
