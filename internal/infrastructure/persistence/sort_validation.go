package persistence

import (
	"fmt"
	"strings"

	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC. Anything else is DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks sortField against a whitelist and falls back to defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// PartySortFields contains allowed sort fields for parties
var PartySortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"code":            true,
	"name":            true,
	"type":            true,
	"current_balance": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":   true,
	"number":       true,
	"invoice_date": true,
	"due_date":     true,
	"total_amount": true,
	"paid_amount":  true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"created_at":   true,
	"payment_date": true,
	"amount":       true,
	"number":       true,
}

// BankAccountSortFields contains allowed sort fields for bank accounts
var BankAccountSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"balance":    true,
}

// BankTransactionSortFields contains allowed sort fields for bank transactions
var BankTransactionSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
}

// applyPage adds a whitelisted ORDER BY plus LIMIT/OFFSET for filter
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(fmt.Sprintf("%s %s", field, ValidateSortOrder(filter.OrderDir)))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
