package partner

import (
	"strings"
	"time"

	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PartyType distinguishes customers from suppliers
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// IsValid returns true if the party type is known
func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// String returns the string representation of PartyType
func (t PartyType) String() string {
	return string(t)
}

// Party is a customer or supplier the shop trades with.
//
// CurrentBalance is positive when the party owes the business for customers,
// and positive when the business owes the party for suppliers. It is never
// written directly: the persistence layer applies signed deltas atomically.
type Party struct {
	shared.BaseAggregateRoot
	Code           string
	Name           string
	Type           PartyType
	Phone          string
	Email          string
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	IsActive       bool
}

// NewParty onboards a new party with an opening balance
func NewParty(code, name string, partyType PartyType, openingBalance decimal.Decimal) (*Party, error) {
	if err := validatePartyCode(code); err != nil {
		return nil, err
	}
	if err := validatePartyName(name); err != nil {
		return nil, err
	}
	if !partyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Party type must be 'customer' or 'supplier'")
	}

	party := &Party{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Type:              partyType,
		OpeningBalance:    openingBalance,
		CurrentBalance:    openingBalance,
		IsActive:          true,
	}

	party.AddDomainEvent(NewPartyCreatedEvent(party))

	return party, nil
}

// SetContact sets phone and email
func (p *Party) SetContact(phone, email string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Email is not valid")
	}
	p.Phone = phone
	p.Email = email
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate soft-deactivates the party. Parties are never deleted because
// invoices and payments keep referencing them.
func (p *Party) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Party is already inactive")
	}
	p.IsActive = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPartyStatusChangedEvent(p))
	return nil
}

// Activate re-activates a deactivated party
func (p *Party) Activate() error {
	if p.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Party is already active")
	}
	p.IsActive = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPartyStatusChangedEvent(p))
	return nil
}

// EnsureActive returns shared.ErrInactive for deactivated parties
func (p *Party) EnsureActive() error {
	if !p.IsActive {
		return shared.ErrInactive
	}
	return nil
}

// IsCustomer returns true for customer parties
func (p *Party) IsCustomer() bool {
	return p.Type == PartyTypeCustomer
}

// IsSupplier returns true for supplier parties
func (p *Party) IsSupplier() bool {
	return p.Type == PartyTypeSupplier
}

func validatePartyCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Party code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Party code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Party code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validatePartyName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Party name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Party name cannot exceed 200 characters")
	}
	return nil
}
