package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/application/ledger"
)

// PartyHandler handles customer and supplier endpoints
type PartyHandler struct {
	BaseHandler
	partyService *ledger.PartyService
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(partyService *ledger.PartyService) *PartyHandler {
	return &PartyHandler{
		partyService: partyService,
	}
}

// Create godoc
// @ID           createParty
// @Summary      Create a party
// @Description  Registers a customer or supplier with an optional opening balance
// @Tags         parties
// @Accept       json
// @Produce      json
// @Param        X-Actor header string false "Operator"
// @Param        request body ledger.CreatePartyRequest true "Party"
// @Success      201 {object} APIResponse[ledger.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /parties [post]
func (h *PartyHandler) Create(c *gin.Context) {
	var req ledger.CreatePartyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx, actor := actorContext(c)
	party, err := h.partyService.Create(ctx, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, party)
}

// GetByID godoc
// @ID           getParty
// @Summary      Get a party
// @Tags         parties
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.PartyResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /parties/{id} [get]
func (h *PartyHandler) GetByID(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	party, err := h.partyService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}

// List godoc
// @ID           listParties
// @Summary      List parties
// @Tags         parties
// @Produce      json
// @Param        type query string false "customer or supplier"
// @Param        active query bool false "Only active or inactive parties"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledger.PartyResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /parties [get]
func (h *PartyHandler) List(c *gin.Context) {
	var filter ledger.PartyListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	parties, err := h.partyService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, parties)
}

// Deactivate godoc
// @ID           deactivateParty
// @Summary      Deactivate a party
// @Description  Stops new payments and invoices for the party. The balance and history are kept.
// @Tags         parties
// @Produce      json
// @Param        X-Actor header string false "Operator"
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.PartyResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /parties/{id}/deactivate [post]
func (h *PartyHandler) Deactivate(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, actor := actorContext(c)
	party, err := h.partyService.Deactivate(ctx, actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}
