package audit

import (
	"maps"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Action enumerates audited operations
type Action string

const (
	ActionPaymentRecorded     Action = "payment_recorded"
	ActionPaymentReplayed     Action = "payment_replayed"
	ActionInvoiceIssued       Action = "invoice_issued"
	ActionPartyOnboarded      Action = "party_onboarded"
	ActionPartyDeactivated    Action = "party_deactivated"
	ActionBankAccountOpened   Action = "bank_account_opened"
	ActionLedgerDriftDetected Action = "ledger_drift_detected"
)

// IsValid checks if the action is known
func (a Action) IsValid() bool {
	switch a {
	case ActionPaymentRecorded, ActionPaymentReplayed, ActionInvoiceIssued,
		ActionPartyOnboarded, ActionPartyDeactivated, ActionBankAccountOpened,
		ActionLedgerDriftDetected:
		return true
	}
	return false
}

// Severity of an audit entry
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity is known
func (s Severity) IsValid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// Entry is an append-only audit record. It is diagnostic: losing one never
// affects the ledger.
type Entry struct {
	shared.BaseEntity
	Actor        string
	Action       Action
	ResourceType string
	ResourceID   uuid.UUID
	Severity     Severity
	Details      map[string]any
}

// NewEntry creates a new audit entry
func NewEntry(actor string, action Action, resourceType string, resourceID uuid.UUID, severity Severity, details map[string]any) (*Entry, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Invalid audit action")
	}
	if strings.TrimSpace(resourceType) == "" {
		return nil, shared.NewDomainError("INVALID_RESOURCE", "Resource type cannot be empty")
	}
	if severity == "" {
		severity = SeverityInfo
	}
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_SEVERITY", "Invalid audit severity")
	}
	if strings.TrimSpace(actor) == "" {
		actor = "system"
	}

	copied := make(map[string]any, len(details))
	maps.Copy(copied, details)

	return &Entry{
		BaseEntity:   shared.NewBaseEntity(),
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Severity:     severity,
		Details:      copied,
	}, nil
}
