package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader may carry the idempotency key instead of the body
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	orchestrator *payment.Orchestrator
	queries      *ledger.PaymentQueryService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(orchestrator *payment.Orchestrator, queries *ledger.PaymentQueryService) *PaymentHandler {
	return &PaymentHandler{
		orchestrator: orchestrator,
		queries:      queries,
	}
}

// AllocationInput targets one invoice. With a single allocation a zero
// amount applies the whole payment amount.
type AllocationInput struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// RecordPaymentRequest represents a request to record a payment
// @Description Request body for recording a payment against a party
type RecordPaymentRequest struct {
	PartyID        uuid.UUID         `json:"party_id" binding:"required"`
	Direction      string            `json:"direction" binding:"required,oneof=in out" example:"in"`
	Amount         decimal.Decimal   `json:"amount" binding:"positive_amount" example:"1500.00"`
	Mode           string            `json:"mode" binding:"required,oneof=advance against_invoice" example:"against_invoice"`
	Allocations    []AllocationInput `json:"allocations" binding:"omitempty,dive"`
	BankAccountID  *uuid.UUID        `json:"bank_account_id"`
	Source         string            `json:"source" binding:"omitempty,oneof=manual automated imported"`
	IdempotencyKey string            `json:"idempotency_key" binding:"max=100"`
	Notes          string            `json:"notes" binding:"max=500"`
	PaymentDate    *time.Time        `json:"payment_date"`
}

// RecordPaymentResponse is the outcome of a recorded or replayed payment
type RecordPaymentResponse struct {
	Payment                ledger.PaymentResponse          `json:"payment"`
	PartyBalance           decimal.Decimal                 `json:"party_balance"`
	BankTransactionCreated bool                            `json:"bank_transaction_created"`
	BankTransaction        *ledger.BankTransactionResponse `json:"bank_transaction,omitempty"`
	State                  payment.State                   `json:"state"`
	Replayed               bool                            `json:"replayed"`
	Warnings               []payment.Warning               `json:"warnings"`
}

func (r RecordPaymentRequest) command(actor, headerKey string) payment.RecordPaymentCommand {
	key := r.IdempotencyKey
	if key == "" {
		key = headerKey
	}
	source := finance.PaymentSource(r.Source)
	if source == "" {
		source = finance.PaymentSourceManual
	}
	var paymentDate time.Time
	if r.PaymentDate != nil {
		paymentDate = *r.PaymentDate
	}

	cmd := payment.RecordPaymentCommand{
		PartyID:       r.PartyID,
		Direction:     finance.Direction(r.Direction),
		Amount:        r.Amount,
		Mode:          finance.PaymentMode(r.Mode),
		BankAccountID: r.BankAccountID,
		Metadata: payment.Metadata{
			Actor:          actor,
			Source:         source,
			IdempotencyKey: key,
			Notes:          r.Notes,
			PaymentDate:    paymentDate,
		},
	}
	for _, a := range r.Allocations {
		cmd.Allocations = append(cmd.Allocations, finance.AllocationRequest{
			InvoiceID: a.InvoiceID,
			Amount:    a.Amount,
		})
	}
	return cmd
}

func toRecordPaymentResponse(result *payment.PaymentResult) RecordPaymentResponse {
	resp := RecordPaymentResponse{
		Payment:                ledger.ToPaymentResponse(result.Payment),
		PartyBalance:           result.PartyBalance,
		BankTransactionCreated: result.BankTransactionCreated,
		State:                  result.State,
		Replayed:               result.Replayed,
		Warnings:               result.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []payment.Warning{}
	}
	if result.BankTransaction != nil {
		txn := ledger.ToBankTransactionResponse(result.BankTransaction)
		resp.BankTransaction = &txn
	}
	return resp
}

// Record godoc
// @ID           recordPayment
// @Summary      Record a payment
// @Description  Allocates the amount over the party's invoices and updates the balance atomically. Bank and audit steps are best-effort and reported as warnings.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Actor header string false "Operator recording the payment"
// @Param        Idempotency-Key header string false "Idempotency key (body field wins)"
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[RecordPaymentResponse]
// @Success      200 {object} APIResponse[RecordPaymentResponse] "Replay of an earlier request"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx, actor := actorContext(c)
	result, err := h.orchestrator.RecordPayment(ctx, req.command(actor, c.GetHeader(IdempotencyKeyHeader)))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Replayed {
		h.Success(c, toRecordPaymentResponse(result))
		return
	}
	h.Created(c, toRecordPaymentResponse(result))
}

// GetByID godoc
// @ID           getPayment
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListByParty godoc
// @ID           listPartyPayments
// @Summary      List a party's payments
// @Tags         payments
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledger.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /parties/{id}/payments [get]
func (h *PaymentHandler) ListByParty(c *gin.Context) {
	partyID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var page dto.PageRequest
	if !h.bindQuery(c, &page) {
		return
	}
	page.Normalize()

	payments, total, err := h.queries.ListByParty(c.Request.Context(), partyID, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, page.Page, page.PageSize)
}
