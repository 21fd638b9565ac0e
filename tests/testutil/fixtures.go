package testutil

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// PartyCode returns a unique, valid party code
func PartyCode(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(gofakeit.LetterN(8)))
}

// CompanyName returns a fake business name
func CompanyName() string {
	return gofakeit.Company()
}

// Phone returns a fake phone number
func Phone() string {
	return gofakeit.Phone()
}

// Email returns a fake email address
func Email() string {
	return gofakeit.Email()
}

// InvoiceNumber returns a unique invoice number
func InvoiceNumber() string {
	return fmt.Sprintf("INV-%d", gofakeit.Number(100000, 999999999))
}

// Money parses a decimal literal and panics on malformed input
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RandomAmount returns a positive amount with two decimal places in [min, max]
func RandomAmount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(gofakeit.Float64Range(min, max)).Round(2)
}
