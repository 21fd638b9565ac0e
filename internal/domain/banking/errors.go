package banking

import "github.com/shopledger/backend/internal/domain/shared"

var (
	// ErrAccountNotFound is returned when posting to an unknown account
	ErrAccountNotFound = shared.NewDomainError("BANK_ACCOUNT_NOT_FOUND", "Bank account not found")
	// ErrAccountInactive is returned when posting to a deactivated account
	ErrAccountInactive = shared.NewDomainError("BANK_ACCOUNT_INACTIVE", "Bank account is inactive")
)
