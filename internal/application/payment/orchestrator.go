package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/banking"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	stepBankTransaction = "bank_transaction"
	stepAudit           = "audit"
	stepPublish         = "publish_events"

	idempotencyKeyPrefix = "payment:"
)

// errKeyTaken signals, from inside the committed unit, that the payment
// insert hit the idempotency key unique index.
var errKeyTaken = errors.New("idempotency key already used")

// Orchestrator is the entry point for recording payments
type Orchestrator struct {
	uow      finance.LedgerUnitOfWork
	parties  partner.PartyRepository
	invoices finance.InvoiceRepository
	payments finance.PaymentRepository
	resolver *finance.AllocationResolver

	bankLedger  banking.Ledger
	bankTxRepo  banking.BankTransactionRepository
	auditRepo   audit.Repository
	publisher   shared.EventPublisher
	idempotency shared.IdempotencyStore
	claimTTL    time.Duration
	recorder    telemetry.LedgerRecorder
	logger      *zap.Logger
	now         func() time.Time
	stepTimeout time.Duration
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithOverpaymentPolicy selects what happens to money left after allocation
func WithOverpaymentPolicy(policy finance.OverpaymentPolicy) Option {
	return func(o *Orchestrator) {
		o.resolver = finance.NewAllocationResolver(policy)
	}
}

// WithBankLedger enables the linked bank movement step
func WithBankLedger(ledger banking.Ledger, transactions banking.BankTransactionRepository) Option {
	return func(o *Orchestrator) {
		o.bankLedger = ledger
		o.bankTxRepo = transactions
	}
}

// WithAuditRepository enables the audit step
func WithAuditRepository(repo audit.Repository) Option {
	return func(o *Orchestrator) {
		o.auditRepo = repo
	}
}

// WithEventPublisher publishes ledger events after commit
func WithEventPublisher(publisher shared.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

// WithIdempotencyStore claims idempotency keys before the committed unit so
// concurrent retries of one request are answered without touching the database.
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.idempotency = store
		if ttl > 0 {
			o.claimTTL = ttl
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(recorder telemetry.LedgerRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithClock replaces time.Now for durations
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithStepTimeout bounds each best-effort step
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stepTimeout = d
	}
}

// NewOrchestrator creates an Orchestrator. The repositories are used for
// reads outside the committed unit; writes go through uow.
func NewOrchestrator(
	uow finance.LedgerUnitOfWork,
	parties partner.PartyRepository,
	invoices finance.InvoiceRepository,
	payments finance.PaymentRepository,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		uow:         uow,
		parties:     parties,
		invoices:    invoices,
		payments:    payments,
		resolver:    finance.NewAllocationResolver(finance.OverpaymentPolicyAdvance),
		claimTTL:    24 * time.Hour,
		recorder:    telemetry.NopRecorder{},
		logger:      zap.NewNop(),
		now:         time.Now,
		stepTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("payment")
	return o
}

// RecordPayment allocates and commits a payment, then runs the bank, audit
// and event steps best-effort. A returned error is always a
// *finance.PaymentError and means nothing was written.
func (o *Orchestrator) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPartyID, cmd.PartyID.String(),
		telemetry.SpanAttrAmount, cmd.Amount.String(),
		telemetry.SpanAttrDirection, string(cmd.Direction),
		telemetry.SpanAttrMode, string(cmd.Mode),
	)

	start := o.now()
	var (
		result *PaymentResult
		err    error
	)
	labels := telemetry.LedgerOperationLabels(telemetry.OperationRecordPayment, map[string]string{
		telemetry.ProfilingLabelDirection: string(cmd.Direction),
		telemetry.ProfilingLabelMode:      string(cmd.Mode),
	})
	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		result, err = o.record(c, cmd)
	})
	elapsed := o.now().Sub(start)

	if err != nil {
		pe := toPaymentError(err, cmd.PartyID)
		telemetry.RecordError(span, pe)
		telemetry.SetAttributes(span,
			telemetry.SpanAttrState, string(StateRejected),
			telemetry.SpanAttrErrorKind, string(pe.Kind),
		)
		o.recorder.PaymentRejected(ctx, string(pe.Kind), elapsed)
		logger.Enrich(ctx, o.logger).Info("Payment rejected",
			zap.String("party_id", cmd.PartyID.String()),
			zap.String("amount", cmd.Amount.String()),
			zap.String("error_kind", string(pe.Kind)),
			zap.Error(pe),
		)
		return nil, pe
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, result.Payment.ID.String(),
		telemetry.SpanAttrState, string(result.State),
		telemetry.SpanAttrReplayed, result.Replayed,
	)
	telemetry.SetOK(span)
	if result.Replayed {
		o.recorder.PaymentReplayed(ctx)
	} else {
		o.recorder.PaymentRecorded(ctx, string(cmd.Direction), string(cmd.Mode), string(result.State),
			result.Payment.Amount.InexactFloat64(), elapsed)
	}
	for _, w := range result.Warnings {
		o.recorder.PaymentWarning(ctx, string(w.Kind))
	}
	return result, nil
}

func (o *Orchestrator) record(ctx context.Context, cmd RecordPaymentCommand) (*PaymentResult, error) {
	// Validating
	params := cmd.params()
	if err := finance.ValidatePaymentParams(params); err != nil {
		return nil, err
	}
	key := normalizeKey(params.IdempotencyKey)

	if key != "" {
		existing, err := o.payments.FindByIdempotencyKey(ctx, key)
		switch {
		case err == nil:
			return o.replay(ctx, cmd, existing)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, internalError("failed to look up idempotency key", err)
		}

		claimed, release := o.claim(ctx, key)
		if !claimed {
			return o.replayByKey(ctx, cmd, key)
		}
		var committed bool
		defer func() {
			if !committed {
				release()
			}
		}()
		result, err := o.execute(ctx, cmd, params)
		committed = err == nil
		return result, err
	}

	return o.execute(ctx, cmd, params)
}

func (o *Orchestrator) execute(ctx context.Context, cmd RecordPaymentCommand, params finance.PaymentParams) (*PaymentResult, error) {
	party, err := o.parties.FindByID(ctx, cmd.PartyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, finance.NewPaymentError(finance.KindPartyNotFound, "party not found").WithParty(cmd.PartyID)
		}
		return nil, internalError("failed to load party", err)
	}
	if err := party.EnsureActive(); err != nil {
		return nil, finance.NewPaymentError(finance.KindInvalidInput, "party is deactivated").WithParty(party.ID).Wrap(err)
	}

	// Allocating
	plan, err := o.allocate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	payment, err := finance.NewPayment(params, plan)
	if err != nil {
		return nil, err
	}

	// ApplyingInvoices + ApplyingBalance, committed together. The unit is
	// detached from the caller's cancellation so it completes or rolls back
	// on its own.
	var (
		balance decimal.Decimal
		events  []shared.DomainEvent
	)
	delta := payment.BalanceDelta(party.Type)
	txCtx := context.WithoutCancel(ctx)
	err = o.uow.Execute(txCtx, func(tx finance.LedgerTx) error {
		events = events[:0]
		for _, line := range plan.Lines {
			evts, err := applyLine(txCtx, tx.Invoices(), line, payment.ID)
			if err != nil {
				return err
			}
			events = append(events, evts...)
		}

		if err := tx.Payments().Create(txCtx, payment); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) && payment.IdempotencyKey != "" {
				return errKeyTaken
			}
			return internalError("failed to insert payment", err)
		}

		balance, err = tx.Parties().AdjustBalance(txCtx, party.ID, delta)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return finance.NewPaymentError(finance.KindPartyNotFound, "party not found").WithParty(party.ID)
			}
			return internalError("failed to adjust party balance", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errKeyTaken) {
			return o.replayByKey(ctx, cmd, payment.IdempotencyKey)
		}
		return nil, err
	}

	logger.Enrich(ctx, o.logger).Info("Payment committed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("number", payment.Number),
		zap.String("party_id", party.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("strategy", string(plan.Strategy)),
		zap.Int("invoices", len(plan.Lines)),
		zap.String("advance_remainder", payment.AdvanceRemainder.String()),
		zap.String("party_balance", balance.String()),
	)

	result := &PaymentResult{
		Payment:      payment,
		PartyBalance: balance,
		State:        StateCompleted,
	}
	events = append(events, partner.NewBalanceChangedEvent(party.ID, delta, balance, banking.ReferenceTypePayment, payment.ID))

	// ApplyingBankTransaction
	if payment.HasBankAccount() {
		if evt := o.postBankTransaction(ctx, result); evt != nil {
			events = append(events, evt)
		}
	}

	// Auditing
	o.audit(ctx, result, audit.ActionPaymentRecorded, map[string]any{
		"number":            payment.Number,
		"direction":         string(payment.Direction),
		"mode":              string(payment.Mode),
		"amount":            payment.Amount.String(),
		"strategy":          string(plan.Strategy),
		"allocations":       len(payment.Allocations),
		"advance_remainder": payment.AdvanceRemainder.String(),
		"party_balance":     balance.String(),
		"bank_transaction":  result.BankTransactionCreated,
	})

	events = append(events, finance.NewPaymentRecordedEvent(payment, balance))
	o.publish(ctx, events)

	if result.HasWarnings() {
		result.State = StatePartiallyCompleted
	}
	return result, nil
}

func (o *Orchestrator) allocate(ctx context.Context, cmd RecordPaymentCommand) (*finance.AllocationPlan, error) {
	var candidates []finance.Invoice
	if cmd.Mode == finance.PaymentModeAgainstInvoice {
		var err error
		if len(cmd.Allocations) == 0 {
			candidates, err = o.invoices.FindOpenByParty(ctx, cmd.PartyID, invoiceKindFor(cmd.Direction))
		} else {
			ids := make([]uuid.UUID, len(cmd.Allocations))
			for i, a := range cmd.Allocations {
				ids[i] = a.InvoiceID
			}
			candidates, err = o.invoices.FindByIDs(ctx, ids)
		}
		if err != nil {
			return nil, internalError("failed to load invoices", err)
		}
	}

	return o.resolver.Resolve(finance.AllocationInput{
		PartyID:    cmd.PartyID,
		Direction:  cmd.Direction,
		Amount:     cmd.Amount,
		Mode:       cmd.Mode,
		Requests:   cmd.Allocations,
		Candidates: candidates,
	})
}

// applyLine re-reads the invoice inside the committed unit, checks it still
// matches the snapshot the plan was built from and applies the allocation.
func applyLine(ctx context.Context, invoices finance.InvoiceRepository, line finance.AllocationLine, paymentID uuid.UUID) ([]shared.DomainEvent, error) {
	inv, err := invoices.FindByID(ctx, line.InvoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, finance.NewPaymentError(finance.KindInvoiceNotFound, "invoice not found").WithInvoice(line.InvoiceID)
		}
		return nil, internalError("failed to reload invoice", err)
	}
	if inv.Version != line.ExpectedVersion || !inv.PaidAmount.Equal(line.PaidBefore) {
		return nil, concurrentModification(inv.ID, line.Amount)
	}

	if err := inv.ApplyAllocation(line.Amount, paymentID); err != nil {
		return nil, err
	}
	if err := invoices.SaveWithLock(ctx, inv); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, concurrentModification(inv.ID, line.Amount)
		}
		return nil, internalError("failed to save invoice", err)
	}

	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	return events, nil
}

func (o *Orchestrator) postBankTransaction(ctx context.Context, result *PaymentResult) shared.DomainEvent {
	p := result.Payment
	if o.bankLedger == nil {
		result.warn(finance.KindBankAccountUnavailable, "no bank ledger is configured")
		return nil
	}

	direction, txType := banking.DirectionIn, banking.TransactionTypePaymentIn
	if p.Direction == finance.DirectionOut {
		direction, txType = banking.DirectionOut, banking.TransactionTypePaymentOut
	}
	txn, err := banking.NewBankTransaction(*p.BankAccountID, direction, p.Amount, txType,
		banking.ReferenceTypePayment, p.ID, "Payment "+p.Number)
	if err != nil {
		result.warn(finance.KindBankTransactionFailed, err.Error())
		return nil
	}

	outcome := o.bestEffort(ctx, stepBankTransaction, func(c context.Context) error {
		return o.bankLedger.Post(c, txn)
	})
	if !outcome.OK() {
		kind := finance.KindBankTransactionFailed
		if errors.Is(outcome.Err, banking.ErrAccountNotFound) || errors.Is(outcome.Err, banking.ErrAccountInactive) {
			kind = finance.KindBankAccountUnavailable
		}
		result.warn(kind, outcome.Err.Error())
		return nil
	}

	result.BankTransactionCreated = true
	result.BankTransaction = txn
	return banking.NewTransactionRecordedEvent(txn)
}

func (o *Orchestrator) audit(ctx context.Context, result *PaymentResult, action audit.Action, details map[string]any) {
	if o.auditRepo == nil {
		return
	}
	severity := audit.SeverityInfo
	if result.HasWarnings() {
		severity = audit.SeverityWarning
		kinds := make([]string, len(result.Warnings))
		for i, w := range result.Warnings {
			kinds[i] = string(w.Kind)
		}
		details["warnings"] = kinds
	}

	p := result.Payment
	outcome := o.bestEffort(ctx, stepAudit, func(c context.Context) error {
		entry, err := audit.NewEntry(p.Actor, action, finance.AggregateTypePayment, p.ID, severity, details)
		if err != nil {
			return err
		}
		return o.auditRepo.Append(c, entry)
	})
	if !outcome.OK() {
		result.warn(finance.KindAuditWriteFailed, outcome.Err.Error())
	}
}

// publish hands events to the bus. Failures are logged only.
func (o *Orchestrator) publish(ctx context.Context, events []shared.DomainEvent) {
	if o.publisher == nil || len(events) == 0 {
		return
	}
	o.bestEffort(ctx, stepPublish, func(c context.Context) error {
		return o.publisher.Publish(c, events...)
	})
}

// claim reserves key in the idempotency store. A store failure is logged and
// treated as a successful claim; the unique index still guards the insert.
func (o *Orchestrator) claim(ctx context.Context, key string) (bool, func()) {
	noop := func() {}
	if o.idempotency == nil {
		return true, noop
	}
	storeKey := idempotencyKeyPrefix + key
	claimed, err := o.idempotency.MarkProcessed(ctx, storeKey, o.claimTTL)
	if err != nil {
		logger.Enrich(ctx, o.logger).Warn("Idempotency store unavailable, relying on unique index",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return true, noop
	}
	if !claimed {
		return false, noop
	}
	return true, func() {
		if err := o.idempotency.Release(context.WithoutCancel(ctx), storeKey); err != nil {
			logger.Enrich(ctx, o.logger).Warn("Failed to release idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
		}
	}
}

// replayByKey answers a request whose key is already taken. If the original
// payment is not visible yet (still committing elsewhere) the caller gets a
// retryable DuplicatePayment.
func (o *Orchestrator) replayByKey(ctx context.Context, cmd RecordPaymentCommand, key string) (*PaymentResult, error) {
	existing, err := o.payments.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, finance.NewPaymentError(finance.KindDuplicatePayment,
			"a payment with this idempotency key is already being recorded").
			WithParty(cmd.PartyID).WithAmount(cmd.Amount).Wrap(err)
	}
	return o.replay(ctx, cmd, existing)
}

func (o *Orchestrator) replay(ctx context.Context, cmd RecordPaymentCommand, existing *finance.Payment) (*PaymentResult, error) {
	if existing.PartyID != cmd.PartyID || existing.Direction != cmd.Direction || !existing.Amount.Equal(cmd.Amount) {
		return nil, finance.NewPaymentError(finance.KindInvalidInput,
			"idempotency key was already used for a different payment").
			WithParty(cmd.PartyID).WithAmount(cmd.Amount)
	}

	result := &PaymentResult{
		Payment:  existing,
		State:    StateCompleted,
		Replayed: true,
	}
	if party, err := o.parties.FindByID(ctx, existing.PartyID); err == nil {
		result.PartyBalance = party.CurrentBalance
	}
	if existing.HasBankAccount() && o.bankTxRepo != nil {
		if txns, err := o.bankTxRepo.FindByReference(ctx, banking.ReferenceTypePayment, existing.ID); err == nil && len(txns) > 0 {
			result.BankTransactionCreated = true
			result.BankTransaction = &txns[0]
		}
	}

	logger.Enrich(ctx, o.logger).Info("Idempotent replay",
		zap.String("payment_id", existing.ID.String()),
		zap.String("idempotency_key", existing.IdempotencyKey),
	)
	o.audit(ctx, result, audit.ActionPaymentReplayed, map[string]any{
		"number":          existing.Number,
		"idempotency_key": existing.IdempotencyKey,
	})
	if result.HasWarnings() {
		result.State = StatePartiallyCompleted
	}
	return result, nil
}

func invoiceKindFor(direction finance.Direction) finance.InvoiceKind {
	if direction == finance.DirectionOut {
		return finance.InvoiceKindPurchase
	}
	return finance.InvoiceKindSales
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}

func concurrentModification(invoiceID uuid.UUID, amount decimal.Decimal) *finance.PaymentError {
	return finance.NewPaymentError(finance.KindConcurrentModification,
		"invoice changed while the payment was being recorded; retry").
		WithInvoice(invoiceID).WithAmount(amount)
}

func internalError(message string, err error) *finance.PaymentError {
	return finance.NewPaymentError(finance.KindInternal, message).Wrap(err)
}

// toPaymentError guarantees callers always receive a *finance.PaymentError
func toPaymentError(err error, partyID uuid.UUID) *finance.PaymentError {
	if pe, ok := finance.AsPaymentError(err); ok {
		out := *pe
		if out.PartyID == uuid.Nil {
			out.PartyID = partyID
		}
		return &out
	}
	return finance.NewPaymentError(finance.KindInternal, fmt.Sprintf("unexpected failure: %v", err)).
		WithParty(partyID).Wrap(err)
}
