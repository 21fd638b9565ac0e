package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/application/ledger"
)

// ReconciliationHandler exposes balance reconciliation
type ReconciliationHandler struct {
	BaseHandler
	reconciliation *ledger.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliation *ledger.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliation: reconciliation,
	}
}

// ReconcileParty godoc
// @ID           reconcileParty
// @Summary      Reconcile a party's balance
// @Description  Compares the stored balance with opening balance plus invoices plus signed payments
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Party ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.ReconciliationReport]
// @Failure      404 {object} ErrorResponse
// @Router       /parties/{id}/reconciliation [get]
func (h *ReconciliationHandler) ReconcileParty(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.reconciliation.ReconcileParty(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// CheckAll godoc
// @ID           checkDrift
// @Summary      Run a drift check over all active parties
// @Description  Drifted parties are audited and reported in the response
// @Tags         reconciliation
// @Produce      json
// @Success      200 {object} APIResponse[ledger.DriftSummary]
// @Failure      500 {object} ErrorResponse
// @Router       /reconciliation/drift-check [post]
func (h *ReconciliationHandler) CheckAll(c *gin.Context) {
	summary, err := h.reconciliation.CheckAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
