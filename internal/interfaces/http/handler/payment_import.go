package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// maxImportFileSize caps an uploaded payment file at 10MB
const maxImportFileSize = 10 << 20

// PaymentImportHandler records payments uploaded as a CSV file
type PaymentImportHandler struct {
	BaseHandler
	importer *payment.Importer
}

// NewPaymentImportHandler creates a new PaymentImportHandler
func NewPaymentImportHandler(importer *payment.Importer) *PaymentImportHandler {
	return &PaymentImportHandler{importer: importer}
}

// ImportPaymentsQuery holds the query options of an upload
type ImportPaymentsQuery struct {
	DryRun    bool   `form:"dry_run"`
	KeyPrefix string `form:"key_prefix" binding:"max=50"`
}

// Import godoc
// @ID           importPayments
// @Summary      Import payments from CSV
// @Description  Validates the whole file, then records one payment per row. Nothing is recorded when any row is invalid. The reference column becomes the idempotency key.
// @Tags         payments
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Actor header string false "Operator importing the file"
// @Param        file formData file true "CSV file"
// @Param        dry_run query bool false "Validate only"
// @Param        key_prefix query string false "Idempotency key prefix for the reference column"
// @Success      200 {object} APIResponse[payment.ImportReport]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Router       /payments/import [post]
func (h *PaymentImportHandler) Import(c *gin.Context) {
	var query ImportPaymentsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum size of 10MB")
		return
	}
	switch header.Header.Get("Content-Type") {
	case "", "text/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel":
	default:
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return
	}

	ctx, actor := actorContext(c)
	report, err := h.importer.Import(ctx, file, payment.ImportOptions{
		Actor:     actor,
		DryRun:    query.DryRun,
		KeyPrefix: query.KeyPrefix,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
