package dto

import (
	"net/http"

	"github.com/shopledger/backend/internal/domain/finance"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInactive is used when the party or account was deactivated
	ErrCodeInactive = "ERR_INACTIVE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Payment error codes, one per finance.ErrorKind that can reject a payment
const (
	ErrCodePartyNotFound          = "ERR_PARTY_NOT_FOUND"
	ErrCodeInvoiceNotFound        = "ERR_INVOICE_NOT_FOUND"
	ErrCodeInvoiceNotOwnedByParty = "ERR_INVOICE_NOT_OWNED_BY_PARTY"
	ErrCodeInvalidAllocation      = "ERR_INVALID_ALLOCATION"
	ErrCodeConcurrentModification = "ERR_CONCURRENT_MODIFICATION"
	ErrCodeDuplicatePayment       = "ERR_DUPLICATE_PAYMENT"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeInactive:     http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Payment errors
	ErrCodePartyNotFound:          http.StatusNotFound,
	ErrCodeInvoiceNotFound:        http.StatusNotFound,
	ErrCodeInvoiceNotOwnedByParty: http.StatusUnprocessableEntity,
	ErrCodeInvalidAllocation:      http.StatusUnprocessableEntity,
	ErrCodeConcurrentModification: http.StatusConflict,
	ErrCodeDuplicatePayment:       http.StatusConflict,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"ALREADY_INACTIVE":     ErrCodeInvalidState,
	"INACTIVE":             ErrCodeInactive,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unknown domain codes are field-level rejections and become ERR_INVALID_INPUT.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInvalidInput
}

var paymentErrorCodes = map[finance.ErrorKind]string{
	finance.KindInvalidInput:           ErrCodeInvalidInput,
	finance.KindPartyNotFound:          ErrCodePartyNotFound,
	finance.KindInvoiceNotFound:        ErrCodeInvoiceNotFound,
	finance.KindInvoiceNotOwnedByParty: ErrCodeInvoiceNotOwnedByParty,
	finance.KindInvalidAllocation:      ErrCodeInvalidAllocation,
	finance.KindConcurrentModification: ErrCodeConcurrentModification,
	finance.KindDuplicatePayment:       ErrCodeDuplicatePayment,
	finance.KindInternal:               ErrCodeInternal,
}

// PaymentErrorCode maps a payment error kind to its API code
func PaymentErrorCode(kind finance.ErrorKind) string {
	if code, ok := paymentErrorCodes[kind]; ok {
		return code
	}
	return ErrCodeInternal
}
