package models

import (
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// PartyModel is the persistence model for the Party aggregate root
type PartyModel struct {
	AggregateModel
	Code           string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string            `gorm:"type:varchar(200);not null"`
	Type           partner.PartyType `gorm:"type:varchar(20);not null;index"`
	Phone          string            `gorm:"type:varchar(50)"`
	Email          string            `gorm:"type:varchar(200)"`
	OpeningBalance decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentBalance decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive       bool              `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Type:              m.Type,
		Phone:             m.Phone,
		Email:             m.Email,
		OpeningBalance:    m.OpeningBalance,
		CurrentBalance:    m.CurrentBalance,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Party
func (m *PartyModel) FromDomain(p *partner.Party) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Type = p.Type
	m.Phone = p.Phone
	m.Email = p.Email
	m.OpeningBalance = p.OpeningBalance
	m.CurrentBalance = p.CurrentBalance
	m.IsActive = p.IsActive
}

// PartyModelFromDomain creates a new persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{}
	m.FromDomain(p)
	return m
}
