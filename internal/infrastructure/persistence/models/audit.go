package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/audit"
)

// JSONMap stores free-form details as a JSON document
type JSONMap map[string]any

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// AuditEntryModel is an append-only audit row
type AuditEntryModel struct {
	BaseModel
	Actor        string         `gorm:"type:varchar(100);not null"`
	Action       audit.Action   `gorm:"type:varchar(50);not null;index"`
	ResourceType string         `gorm:"type:varchar(50);not null;index:idx_audit_resource,priority:1"`
	ResourceID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_resource,priority:2"`
	Severity     audit.Severity `gorm:"type:varchar(20);not null;default:'info'"`
	Details      JSONMap        `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// ToDomain converts the persistence model to a domain audit Entry
func (m *AuditEntryModel) ToDomain() *audit.Entry {
	return &audit.Entry{
		BaseEntity:   m.BaseModel.ToDomain(),
		Actor:        m.Actor,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Severity:     m.Severity,
		Details:      map[string]any(m.Details),
	}
}

// AuditEntryModelFromDomain creates a new persistence model from a domain audit Entry
func AuditEntryModelFromDomain(e *audit.Entry) *AuditEntryModel {
	m := &AuditEntryModel{
		Actor:        e.Actor,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Severity:     e.Severity,
		Details:      JSONMap(e.Details),
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
