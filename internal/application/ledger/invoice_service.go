package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const referenceTypeInvoice = "invoice"

// InvoiceService issues and reads invoices
type InvoiceService struct {
	uow       finance.LedgerUnitOfWork
	parties   partner.PartyRepository
	invoices  finance.InvoiceRepository
	audits    audit.Repository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService. audits and publisher may be nil.
func NewInvoiceService(
	uow finance.LedgerUnitOfWork,
	parties partner.PartyRepository,
	invoices finance.InvoiceRepository,
	audits audit.Repository,
	publisher shared.EventPublisher,
	l *zap.Logger,
) *InvoiceService {
	if l == nil {
		l = zap.NewNop()
	}
	return &InvoiceService{
		uow:       uow,
		parties:   parties,
		invoices:  invoices,
		audits:    audits,
		publisher: publisher,
		logger:    l.Named("invoice"),
		now:       time.Now,
	}
}

// Issue stores a new invoice and raises the party balance by its total in
// the same transaction.
func (s *InvoiceService) Issue(ctx context.Context, actor string, req IssueInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "issue")
	defer span.End()

	var resp *InvoiceResponse
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.LedgerOperationLabels(telemetry.OperationIssueInvoice, nil), func(c context.Context) {
		resp, err = s.issue(c, actor, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return resp, nil
}

func (s *InvoiceService) issue(ctx context.Context, actor string, req IssueInvoiceRequest) (*InvoiceResponse, error) {
	kind := finance.InvoiceKind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Invoice kind must be 'sales' or 'purchase'")
	}

	party, err := s.parties.FindByID(ctx, req.PartyID)
	if err != nil {
		return nil, err
	}
	if err := party.EnsureActive(); err != nil {
		return nil, err
	}
	if kind.PartyType() != party.Type {
		return nil, shared.NewDomainError("KIND_MISMATCH",
			fmt.Sprintf("A %s invoice cannot be issued to a %s", kind, party.Type))
	}

	number := strings.TrimSpace(req.Number)
	exists, err := s.invoices.ExistsByNumber(ctx, kind, number)
	if err != nil {
		return nil, fmt.Errorf("failed to check invoice number: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice with this number already exists")
	}

	invoiceDate := s.now()
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}
	inv, err := finance.NewInvoice(party.ID, kind, number, req.TotalAmount, invoiceDate, req.DueDate)
	if err != nil {
		return nil, err
	}
	inv.Notes = req.Notes

	balance := party.CurrentBalance
	txCtx := context.WithoutCancel(ctx)
	err = s.uow.Execute(txCtx, func(tx finance.LedgerTx) error {
		if err := tx.Invoices().Create(txCtx, inv); err != nil {
			return err
		}
		var err error
		balance, err = tx.Parties().AdjustBalance(txCtx, party.ID, inv.TotalAmount)
		return err
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Invoice with this number already exists")
		}
		return nil, fmt.Errorf("failed to issue invoice: %w", err)
	}

	logger.Enrich(ctx, s.logger).Info("Invoice issued",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("kind", string(inv.Kind)),
		zap.String("party_id", party.ID.String()),
		zap.String("total", inv.TotalAmount.String()),
		zap.String("party_balance", balance.String()),
	)

	recordAudit(ctx, s.audits, s.logger, actor, audit.ActionInvoiceIssued, finance.AggregateTypeInvoice, inv.ID, map[string]any{
		"number":   inv.Number,
		"kind":     string(inv.Kind),
		"party_id": party.ID.String(),
		"total":    inv.TotalAmount.String(),
	})
	publishAggregateEvents(ctx, s.publisher, s.logger, inv,
		partner.NewBalanceChangedEvent(party.ID, inv.TotalAmount, balance, referenceTypeInvoice, inv.ID))

	resp := ToInvoiceResponse(inv, s.now())
	return &resp, nil
}

// GetByID returns an invoice
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv, s.now())
	return &resp, nil
}

// ListByParty returns one page of a party's invoices, oldest first
func (s *InvoiceService) ListByParty(ctx context.Context, partyID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	if _, err := s.parties.FindByID(ctx, partyID); err != nil {
		return nil, 0, err
	}

	f := shared.DefaultFilter()
	f.OrderBy = "invoice_date"
	f.OrderDir = "asc"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OpenOnly {
		f.Filters["open"] = true
	}

	invoices, total, err := s.invoices.FindByParty(ctx, partyID, f)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i], now)
	}
	return out, total, nil
}
