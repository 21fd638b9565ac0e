package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
)

// PaymentQueryService reads recorded payments. Recording goes through the
// payment orchestrator.
type PaymentQueryService struct {
	parties  partner.PartyRepository
	payments finance.PaymentRepository
}

// NewPaymentQueryService creates a new PaymentQueryService
func NewPaymentQueryService(parties partner.PartyRepository, payments finance.PaymentRepository) *PaymentQueryService {
	return &PaymentQueryService{parties: parties, payments: payments}
}

// GetByID returns a payment with its allocations
func (s *PaymentQueryService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// ListByParty returns one page of a party's payments
func (s *PaymentQueryService) ListByParty(ctx context.Context, partyID uuid.UUID, page, pageSize int) ([]PaymentResponse, int64, error) {
	if _, err := s.parties.FindByID(ctx, partyID); err != nil {
		return nil, 0, err
	}
	payments, total, err := s.payments.FindByParty(ctx, partyID, pageFilter(page, pageSize))
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out, total, nil
}
