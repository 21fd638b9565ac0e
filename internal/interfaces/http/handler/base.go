package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// ActorHeader names the operator that performs a write
const ActorHeader = "X-Actor"

// defaultActor is recorded when a request carries no actor
const defaultActor = "api"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// actorContext returns the request context tagged with the acting operator
func actorContext(c *gin.Context) (context.Context, string) {
	actor := strings.TrimSpace(c.GetHeader(ActorHeader))
	if actor == "" {
		actor = defaultActor
	}
	if len(actor) > 100 {
		actor = actor[:100]
	}
	return logger.WithActor(c.Request.Context(), actor), actor
}

// parseIDParam reads a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body and answers 400 with field details on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and answers 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.ValidationError(c, middleware.ValidationDetails(verrs))
		return
	}
	h.BadRequest(c, err.Error())
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// paymentErrorContext is the structured part of a payment failure
type paymentErrorContext struct {
	Kind            finance.ErrorKind `json:"kind"`
	PartyID         *uuid.UUID        `json:"party_id,omitempty"`
	InvoiceID       *uuid.UUID        `json:"invoice_id,omitempty"`
	RequestedAmount string            `json:"requested_amount,omitempty"`
	Retryable       bool              `json:"retryable"`
}

// HandleError converts payment, domain and unknown errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	if pe, ok := finance.AsPaymentError(err); ok {
		code := dto.PaymentErrorCode(pe.Kind)
		message := pe.Message
		if code == dto.ErrCodeInternal {
			logger.GetGinLogger(c).Error("Payment failed", zap.Error(err))
			message = "An unexpected error occurred"
		}
		resp := dto.NewErrorResponseWithRequestID(code, message, requestID)
		resp.Error.Context = newPaymentErrorContext(pe)
		c.JSON(dto.GetHTTPStatus(code), resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

func newPaymentErrorContext(pe *finance.PaymentError) paymentErrorContext {
	out := paymentErrorContext{Kind: pe.Kind, Retryable: pe.Retryable()}
	if pe.PartyID != uuid.Nil {
		id := pe.PartyID
		out.PartyID = &id
	}
	if pe.InvoiceID != uuid.Nil {
		id := pe.InvoiceID
		out.InvoiceID = &id
	}
	if !pe.RequestedAmount.IsZero() {
		out.RequestedAmount = pe.RequestedAmount.String()
	}
	return out
}
