// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: DocumentModel shared by every branch-owned document
//   - trade.go: orders, invoices and their lines
//   - finance.go: cheques, payments, expense lists and expense lines
//   - inventory.go: per-branch stock levels
//   - partner.go: contacts
//   - outbox.go: outbox pattern model for event delivery
//
// Every table that carries a branch_id column is filtered by the branch
// scope plugin on reads, updates and deletes.
package models
