package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bistrokit/bistro/pkg/models"
)

// ListOpeningHours returns all opening-hours rules, weekly rules first.
func (s *Store) ListOpeningHours(ctx context.Context) ([]*models.OpeningHours, error) {
	var hours []*models.OpeningHours
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Order("specific_date IS NOT NULL, day_of_week").
			Find(&hours).Error
	})
	if err != nil {
		return nil, err
	}
	return hours, nil
}

// GetHoursForDate returns the effective rule for a calendar date: a
// specific-date row wins over the weekly day-of-week rule.
func (s *Store) GetHoursForDate(ctx context.Context, date time.Time) (*models.OpeningHours, error) {
	day := models.DateOf(date)

	var rule models.OpeningHours
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("specific_date >= ? AND specific_date < ?", day, day.Add(24*time.Hour)).
			First(&rule).Error
	})
	if err == nil {
		return &rule, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("day_of_week = ? AND specific_date IS NULL", models.ISODay(date)).
			First(&rule).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrHoursNotFound)
	}
	return &rule, nil
}

// UpsertOpeningHours creates or replaces the rule for a day of week or a
// specific date, preserving the uniqueness of both rule kinds.
func (s *Store) UpsertOpeningHours(ctx context.Context, rule *models.OpeningHours) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.SpecificDate != nil {
		day := models.DateOf(*rule.SpecificDate)
		rule.SpecificDate = &day
		rule.DayOfWeek = 0
	}

	return s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.OpeningHours
			var err error
			if rule.SpecificDate != nil {
				err = tx.
					Where("specific_date >= ? AND specific_date < ?",
						*rule.SpecificDate, rule.SpecificDate.Add(24*time.Hour)).
					First(&existing).Error
			} else {
				err = tx.
					Where("day_of_week = ? AND specific_date IS NULL", rule.DayOfWeek).
					First(&existing).Error
			}

			switch {
			case err == nil:
				rule.ID = existing.ID
				return tx.Model(&existing).Updates(map[string]any{
					"open_time":  rule.OpenTime,
					"close_time": rule.CloseTime,
					"is_closed":  rule.IsClosed,
				}).Error
			case errors.Is(err, gorm.ErrRecordNotFound):
				return tx.Create(rule).Error
			default:
				return err
			}
		})
	})
}
