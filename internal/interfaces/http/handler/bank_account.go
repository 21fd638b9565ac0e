package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// BankAccountHandler handles bank and cash account endpoints
type BankAccountHandler struct {
	BaseHandler
	accountService *ledger.BankAccountService
}

// NewBankAccountHandler creates a new BankAccountHandler
func NewBankAccountHandler(accountService *ledger.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{
		accountService: accountService,
	}
}

// Open godoc
// @ID           openBankAccount
// @Summary      Open a bank or cash account
// @Tags         bank-accounts
// @Accept       json
// @Produce      json
// @Param        X-Actor header string false "Operator"
// @Param        request body ledger.OpenBankAccountRequest true "Account"
// @Success      201 {object} APIResponse[ledger.BankAccountResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /bank-accounts [post]
func (h *BankAccountHandler) Open(c *gin.Context) {
	var req ledger.OpenBankAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx, actor := actorContext(c)
	account, err := h.accountService.Open(ctx, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// GetByID godoc
// @ID           getBankAccount
// @Summary      Get a bank account
// @Tags         bank-accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.BankAccountResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /bank-accounts/{id} [get]
func (h *BankAccountHandler) GetByID(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// List godoc
// @ID           listBankAccounts
// @Summary      List bank accounts
// @Tags         bank-accounts
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledger.BankAccountResponse]
// @Router       /bank-accounts [get]
func (h *BankAccountHandler) List(c *gin.Context) {
	var page dto.PageRequest
	if !h.bindQuery(c, &page) {
		return
	}
	page.Normalize()

	accounts, total, err := h.accountService.List(c.Request.Context(), page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, accounts, total, page.Page, page.PageSize)
}

// Deactivate godoc
// @ID           deactivateBankAccount
// @Summary      Deactivate a bank account
// @Description  Payments routed to an inactive account still commit but report a bank warning.
// @Tags         bank-accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.BankAccountResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /bank-accounts/{id}/deactivate [post]
func (h *BankAccountHandler) Deactivate(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	account, err := h.accountService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Transactions godoc
// @ID           listBankTransactions
// @Summary      List an account's transactions
// @Description  Newest first
// @Tags         bank-accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ledger.BankTransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /bank-accounts/{id}/transactions [get]
func (h *BankAccountHandler) Transactions(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var page dto.PageRequest
	if !h.bindQuery(c, &page) {
		return
	}
	page.Normalize()

	txns, total, err := h.accountService.Transactions(c.Request.Context(), id, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txns, total, page.Page, page.PageSize)
}
