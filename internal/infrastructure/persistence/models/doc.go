// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags or infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain/FromDomain mappers convert between the two
// 4. Repositories only read and write persistence models
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - party.go: parties
// - invoice.go: invoices
// - payment.go: payments and payment_allocations
// - banking.go: bank_accounts and bank_transactions
// - audit.go: audit_entries
package models
