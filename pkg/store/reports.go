package store

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/bistrokit/bistro/pkg/models"
)

// Report keys in the performance report. Values are minutes for the
// averages and plain counts for the rest.
const (
	ReportAvgLateness  = "avg_lateness_minutes"
	ReportAvgStay      = "avg_stay_minutes"
	ReportAvgOverstay  = "avg_overstay_minutes"
	ReportLateArrivals = "late_arrivals"
	ReportCompleted    = "completed"
	ReportWaitlisted   = "waitlist_entries"
)

const expectedStay = 120 * time.Minute

// monthBounds returns [first of month, first of next month).
func monthBounds(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}

// ordersForMonth loads every order scheduled inside the month. Aggregation
// happens in Go so the arithmetic is identical on SQLite and PostgreSQL.
func (s *Store) ordersForMonth(ctx context.Context, month, year int) ([]*models.Order, error) {
	start, end := monthBounds(month, year)
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("order_date >= ? AND order_date < ?", start, end).
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetPerformanceReport aggregates arrival punctuality, stay duration and
// waitlist pressure for one month.
func (s *Store) GetPerformanceReport(ctx context.Context, month, year int) (map[string]float64, error) {
	orders, err := s.ordersForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	report := map[string]float64{
		ReportAvgLateness:  0,
		ReportAvgStay:      0,
		ReportAvgOverstay:  0,
		ReportLateArrivals: 0,
		ReportCompleted:    0,
		ReportWaitlisted:   0,
	}

	var latenessSum, staySum, overstaySum float64
	var arrivals, stays int

	for _, o := range orders {
		if o.Status == models.StatusCompleted {
			report[ReportCompleted]++
		}
		if o.EnteredWaitlist {
			report[ReportWaitlisted]++
		}

		if o.ArrivalAt != nil {
			lateness := o.ArrivalAt.Sub(o.ScheduledAt)
			if lateness < 0 {
				lateness = 0
			}
			latenessSum += lateness.Minutes()
			arrivals++
			if lateness > 15*time.Minute {
				report[ReportLateArrivals]++
			}

			if o.LeaveAt != nil {
				stay := o.LeaveAt.Sub(*o.ArrivalAt)
				staySum += stay.Minutes()
				stays++
				if overstay := stay - expectedStay; overstay > 0 {
					overstaySum += overstay.Minutes()
				}
			}
		}
	}

	if arrivals > 0 {
		report[ReportAvgLateness] = latenessSum / float64(arrivals)
	}
	if stays > 0 {
		report[ReportAvgStay] = staySum / float64(stays)
		report[ReportAvgOverstay] = overstaySum / float64(stays)
	}
	return report, nil
}

// GetSubscriptionReport returns, for member orders only, the per-day order
// count (key = day number) and per-day waitlist entries (key = "W-<day>").
// The flat map lets a client render both series from one payload.
func (s *Store) GetSubscriptionReport(ctx context.Context, month, year int) (map[string]float64, error) {
	orders, err := s.ordersForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	report := make(map[string]float64)
	for _, o := range orders {
		if o.IsGuest() {
			continue
		}
		day := strconv.Itoa(o.ScheduledAt.Day())
		report[day]++
		if o.EnteredWaitlist {
			report["W-"+day]++
		}
	}
	return report, nil
}
