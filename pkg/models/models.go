// Package models defines the Bistro domain entities persisted in the
// relational store: users, tables, orders and opening hours. The column
// names mirror the fixed deployment schema.
package models

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&User{},
		&Table{},
		&Order{},
		&OpeningHours{},
	}
}
