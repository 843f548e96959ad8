package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/bistrokit/bistro/pkg/models"
)

// ListTables returns all tables ordered by identifier.
func (s *Store) ListTables(ctx context.Context) ([]*models.Table, error) {
	var tables []*models.Table
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Order("table_id").Find(&tables).Error
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// GetTable returns one table by identifier.
func (s *Store) GetTable(ctx context.Context, id int) (*models.Table, error) {
	var table models.Table
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("table_id = ?", id).First(&table).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrTableNotFound)
	}
	return &table, nil
}

// AddTable creates a table with a staff-chosen identifier.
func (s *Store) AddTable(ctx context.Context, table *models.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	table.Status = models.TableAvailable

	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Create(table).Error
	})
	if isUniqueConstraintError(err) {
		return models.ErrDuplicateTable
	}
	return err
}

// DeleteTable removes a table. Only AVAILABLE tables can be deleted; the
// conditional delete refuses to pull a table out from under a seated party.
func (s *Store) DeleteTable(ctx context.Context, id int) error {
	return s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Where("table_id = ? AND status = ?", id, models.TableAvailable).
			Delete(&models.Table{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Distinguish "missing" from "occupied" for a useful error.
			var table models.Table
			if err := db.WithContext(ctx).Where("table_id = ?", id).First(&table).Error; err != nil {
				return convertNotFoundError(err, models.ErrTableNotFound)
			}
			return models.ErrTableOccupied
		}
		return nil
	})
}

// UpdateTableCapacity changes a table's capacity. Allowed only while the
// table is AVAILABLE.
func (s *Store) UpdateTableCapacity(ctx context.Context, id, capacity int) error {
	return s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.Table{}).
			Where("table_id = ? AND status = ?", id, models.TableAvailable).
			Update("capacity", capacity)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var table models.Table
			if err := db.WithContext(ctx).Where("table_id = ?", id).First(&table).Error; err != nil {
				return convertNotFoundError(err, models.ErrTableNotFound)
			}
			return models.ErrTableOccupied
		}
		return nil
	})
}

// GetCapacities returns the capacities of all tables, ordered ascending.
// This is the input multiset for the best-fit feasibility check.
func (s *Store) GetCapacities(ctx context.Context) ([]int, error) {
	var capacities []int
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&models.Table{}).
			Order("capacity").
			Pluck("capacity", &capacities).Error
	})
	if err != nil {
		return nil, err
	}
	return capacities, nil
}

// ClaimTable conditionally flips one AVAILABLE table to OCCUPIED. Returns
// false when another party claimed it first; the caller retries with the
// next candidate.
func (s *Store) ClaimTable(ctx context.Context, id int) (bool, error) {
	var claimed bool
	err := s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.Table{}).
			Where("table_id = ? AND status = ?", id, models.TableAvailable).
			Update("status", models.TableOccupied)
		if result.Error != nil {
			return result.Error
		}
		claimed = result.RowsAffected > 0
		return nil
	})
	return claimed, err
}

// FreeTable resets a table to AVAILABLE.
func (s *Store) FreeTable(ctx context.Context, id int) error {
	return s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&models.Table{}).
			Where("table_id = ?", id).
			Update("status", models.TableAvailable).Error
	})
}

// ListAvailableTables returns AVAILABLE tables with capacity >= guests,
// ordered by ascending capacity then identifier. This is the candidate scan
// for the arrival path: the first claimable entry is the best fit.
func (s *Store) ListAvailableTables(ctx context.Context, guests int) ([]*models.Table, error) {
	var tables []*models.Table
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status = ? AND capacity >= ?", models.TableAvailable, guests).
			Order("capacity, table_id").
			Find(&tables).Error
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}
