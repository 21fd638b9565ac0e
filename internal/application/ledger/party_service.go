// Package ledger holds the ledger maintenance services around the payment
// engine: party onboarding, invoice issuance, bank accounts and balance
// reconciliation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PartyService handles party onboarding and status changes
type PartyService struct {
	parties   partner.PartyRepository
	audits    audit.Repository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPartyService creates a new PartyService. audits and publisher may be nil.
func NewPartyService(parties partner.PartyRepository, audits audit.Repository, publisher shared.EventPublisher, l *zap.Logger) *PartyService {
	if l == nil {
		l = zap.NewNop()
	}
	return &PartyService{
		parties:   parties,
		audits:    audits,
		publisher: publisher,
		logger:    l.Named("party"),
	}
}

// Create onboards a new customer or supplier
func (s *PartyService) Create(ctx context.Context, actor string, req CreatePartyRequest) (*PartyResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.parties.FindByCode(ctx, code); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Party with this code already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check party code: %w", err)
	}

	party, err := partner.NewParty(code, strings.TrimSpace(req.Name), partner.PartyType(req.Type), req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" || req.Email != "" {
		if err := party.SetContact(req.Phone, req.Email); err != nil {
			return nil, err
		}
	}

	if err := s.parties.Create(ctx, party); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Party with this code already exists")
		}
		return nil, fmt.Errorf("failed to create party: %w", err)
	}

	logger.Enrich(ctx, s.logger).Info("Party onboarded",
		zap.String("party_id", party.ID.String()),
		zap.String("code", party.Code),
		zap.String("type", string(party.Type)),
		zap.String("opening_balance", party.OpeningBalance.String()),
	)

	recordAudit(ctx, s.audits, s.logger, actor, audit.ActionPartyOnboarded, partner.AggregateTypeParty, party.ID, map[string]any{
		"code":            party.Code,
		"type":            string(party.Type),
		"opening_balance": party.OpeningBalance.String(),
	})
	publishAggregateEvents(ctx, s.publisher, s.logger, party)

	resp := ToPartyResponse(party)
	return &resp, nil
}

// GetByID returns a party
func (s *PartyService) GetByID(ctx context.Context, id uuid.UUID) (*PartyResponse, error) {
	party, err := s.parties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPartyResponse(party)
	return &resp, nil
}

// List returns parties matching the filter
func (s *PartyService) List(ctx context.Context, filter PartyListFilter) ([]PartyResponse, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Type != "" {
		f.Filters["type"] = filter.Type
	}
	if filter.Active != nil {
		f.Filters["is_active"] = *filter.Active
	}

	parties, err := s.parties.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]PartyResponse, len(parties))
	for i := range parties {
		out[i] = ToPartyResponse(&parties[i])
	}
	return out, nil
}

// Deactivate stops a party from taking new payments and invoices. The
// balance and history are kept.
func (s *PartyService) Deactivate(ctx context.Context, actor string, id uuid.UUID) (*PartyResponse, error) {
	party, err := s.parties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := party.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.parties.SaveWithLock(ctx, party); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Party deactivated",
		zap.String("party_id", party.ID.String()),
		zap.String("balance", party.CurrentBalance.String()),
	)
	recordAudit(ctx, s.audits, s.logger, actor, audit.ActionPartyDeactivated, partner.AggregateTypeParty, party.ID, map[string]any{
		"balance": party.CurrentBalance.String(),
	})
	publishAggregateEvents(ctx, s.publisher, s.logger, party)

	resp := ToPartyResponse(party)
	return &resp, nil
}
