package models

import "fmt"

// TableStatus represents the occupancy state of a physical table.
type TableStatus string

const (
	// TableAvailable means the table can be assigned to an arriving party.
	TableAvailable TableStatus = "AVAILABLE"
	// TableOccupied means exactly one SEATED or BILLED order holds the table.
	TableOccupied TableStatus = "OCCUPIED"
)

// Table represents a physical dining table. Identifiers are staff-chosen
// positive integers (the number printed on the table), not auto-generated.
type Table struct {
	ID       int         `gorm:"column:table_id;primaryKey;autoIncrement:false" json:"table_id"`
	Capacity int         `gorm:"column:capacity;not null" json:"capacity"`
	Status   TableStatus `gorm:"column:status;size:20;not null;default:AVAILABLE" json:"status"`
}

// TableName returns the table name for Table.
func (Table) TableName() string {
	return "tables"
}

// Validate checks if the table has valid configuration.
func (t *Table) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("table id must be positive")
	}
	if t.Capacity <= 0 {
		return fmt.Errorf("table capacity must be positive")
	}
	return nil
}
