package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *ledger.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *ledger.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// Issue godoc
// @ID           issueInvoice
// @Summary      Issue an invoice
// @Description  Records a sales or purchase invoice and raises the party's balance by its total
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Actor header string false "Operator"
// @Param        request body ledger.IssueInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[ledger.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Issue(c *gin.Context) {
	var req ledger.IssueInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx, actor := actorContext(c)
	invoice, err := h.invoiceService.Issue(ctx, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ListByParty godoc
// @ID           listPartyInvoices
// @Summary      List a party's invoices
// @Description  Oldest first. With open=true only invoices with an outstanding due are returned.
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Param        open query bool false "Only open invoices"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledger.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /parties/{id}/invoices [get]
func (h *InvoiceHandler) ListByParty(c *gin.Context) {
	partyID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var filter ledger.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}
	page.Normalize()
	filter.Page, filter.PageSize = page.Page, page.PageSize

	invoices, total, err := h.invoiceService.ListByParty(c.Request.Context(), partyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}
