package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/bistrokit/bistro/pkg/models"
)

// OverlapWindow is the envelope around a reservation time inside which two
// orders compete for the same tables.
const OverlapWindow = 2 * time.Hour

// confirmationCodeAttempts bounds the retry loop for unique code generation.
const confirmationCodeAttempts = 64

// CreateOrder persists a new order, assigning a fresh confirmation code that
// is unique among orders in active states.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.PlacedAt.IsZero() {
		order.PlacedAt = time.Now()
	}
	code, err := s.nextConfirmationCode(ctx)
	if err != nil {
		return err
	}
	order.Code = code

	return s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Create(order).Error
	})
}

// GetOrderByID returns one order by identifier.
func (s *Store) GetOrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("order_number = ?", id).First(&order).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrOrderNotFound)
	}
	return &order, nil
}

// GetOrderByActiveCode returns the order holding the given confirmation code
// in an active state. Terminal orders do not shadow reissued codes.
func (s *Store) GetOrderByActiveCode(ctx context.Context, code int) (*models.Order, error) {
	var order models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("confirmation_code = ? AND status IN ?", code, models.ActiveStatuses).
			First(&order).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrOrderNotFound)
	}
	return &order, nil
}

// HasActiveOrderToday reports whether an active order exists today for the
// given contact. Used to reject duplicate walk-ins.
func (s *Store) HasActiveOrderToday(ctx context.Context, phone, email string) (bool, error) {
	dayStart, dayEnd := todayBounds(time.Now())
	var count int64
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&models.Order{}).
			Where("status IN ? AND order_date >= ? AND order_date < ?", models.ActiveStatuses, dayStart, dayEnd).
			Where("(phone <> '' AND phone = ?) OR (email <> '' AND email = ?)", phone, email).
			Count(&count).Error
	})
	return count > 0, err
}

// GetOrdersByContactActiveToday returns today's active orders matching a
// phone or email exactly. Backs the confirmation-code recovery path.
func (s *Store) GetOrdersByContactActiveToday(ctx context.Context, phone, email string) ([]*models.Order, error) {
	dayStart, dayEnd := todayBounds(time.Now())
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status IN ? AND order_date >= ? AND order_date < ?", models.ActiveStatuses, dayStart, dayEnd).
			Where("(phone <> '' AND phone = ?) OR (email <> '' AND email = ?)", phone, email).
			Order("order_date").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOverlappingActive returns the active orders whose scheduled time lies
// within the +-2h overlap window around t, excluding excludeID (0 for none).
func (s *Store) GetOverlappingActive(ctx context.Context, t time.Time, excludeID uint) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		q := db.WithContext(ctx).
			Where("status IN ? AND order_date > ? AND order_date < ?",
				models.ActiveStatuses, t.Add(-OverlapWindow), t.Add(OverlapWindow))
		if excludeID != 0 {
			q = q.Where("order_number <> ?", excludeID)
		}
		return q.Order("order_date").Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SeatOrder transitions an order to SEATED at the given table. The update is
// conditional on the order still being seatable (PENDING or NOTIFIED), so a
// concurrent cancellation or late-cancel tick cannot be overwritten.
func (s *Store) SeatOrder(ctx context.Context, orderID uint, tableID int, now time.Time) error {
	return s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.Order{}).
			Where("order_number = ? AND status IN ?", orderID,
				[]models.OrderStatus{models.StatusPending, models.StatusNotified}).
			Updates(map[string]any{
				"status":              models.StatusSeated,
				"assigned_table_id":   tableID,
				"actual_arrival_time": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrWrongState
		}
		return nil
	})
}

// UpdateOrderStatus transitions an order between explicit states. The from
// set guards against racing writers; zero rows affected means the order was
// no longer in any of the expected states.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID uint, from []models.OrderStatus, to models.OrderStatus) error {
	return s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.Order{}).
			Where("order_number = ? AND status IN ?", orderID, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrWrongState
		}
		return nil
	})
}

// CancelOrder transitions an active order to CANCELLED. When the order held
// a table (SEATED/BILLED), the table is freed after the order row clears its
// assignment, so no observer sees an OCCUPIED table with no holder.
func (s *Store) CancelOrder(ctx context.Context, orderID uint) error {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.IsActive() {
		return models.ErrWrongState
	}

	err = s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.Order{}).
			Where("order_number = ? AND status IN ?", orderID, models.ActiveStatuses).
			Updates(map[string]any{
				"status":            models.StatusCancelled,
				"assigned_table_id": nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrWrongState
		}
		return nil
	})
	if err != nil {
		return err
	}

	if order.TableID != nil {
		return s.FreeTable(ctx, *order.TableID)
	}
	return nil
}

// ReleaseOrder moves a table-holding order (SEATED/BILLED) into a state that
// does not hold a table. The order row clears its assignment before the
// table row resets, same ordering as CancelOrder; a COMPLETED target also
// stamps the leave time. Returns the freed table id.
func (s *Store) ReleaseOrder(ctx context.Context, orderID uint, to models.OrderStatus) (int, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.TableID == nil || !order.Status.HoldsTable() {
		return 0, models.ErrWrongState
	}
	tableID := *order.TableID

	updates := map[string]any{
		"status":            to,
		"assigned_table_id": nil,
	}
	if to == models.StatusCompleted {
		updates["actual_leave_time"] = time.Now()
	}
	err = s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.Order{}).
			Where("order_number = ? AND status IN ?", orderID,
				[]models.OrderStatus{models.StatusSeated, models.StatusBilled}).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrWrongState
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := s.FreeTable(ctx, tableID); err != nil {
		return 0, err
	}
	return tableID, nil
}

// ProcessPayment atomically completes an order: status COMPLETED, assigned
// table cleared, leave time stamped, final price recorded. The freed table
// id is returned so the caller can run waitlist promotion.
func (s *Store) ProcessPayment(ctx context.Context, orderID uint, finalPrice float64, now time.Time) (freedTable int, err error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Status != models.StatusSeated && order.Status != models.StatusBilled {
		return 0, models.ErrWrongState
	}

	err = s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.
				Model(&models.Order{}).
				Where("order_number = ? AND status IN ?", orderID,
					[]models.OrderStatus{models.StatusSeated, models.StatusBilled}).
				Updates(map[string]any{
					"status":            models.StatusCompleted,
					"total_price":       finalPrice,
					"assigned_table_id": nil,
					"actual_leave_time": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return models.ErrWrongState
			}

			if order.TableID != nil {
				if err := tx.
					Model(&models.Table{}).
					Where("table_id = ?", *order.TableID).
					Update("status", models.TableAvailable).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	if order.TableID != nil {
		return *order.TableID, nil
	}
	return 0, nil
}

// PromoteWaitlisted advances the earliest WAITING order that fits the given
// capacity to NOTIFIED and resets its scheduled time to now, starting the
// 15-minute claim window. Returns nil when the waitlist has no fitting entry.
//
// The WAITING->NOTIFIED advance is conditional; when another promoter wins
// the race the next candidate is tried.
func (s *Store) PromoteWaitlisted(ctx context.Context, capacity int, now time.Time) (*models.Order, error) {
	for {
		var candidate models.Order
		err := s.withHandle(func(db *gorm.DB) error {
			return db.WithContext(ctx).
				Where("status = ? AND number_of_guests <= ?", models.StatusWaiting, capacity).
				Order("date_of_placing_order").
				First(&candidate).Error
		})
		if err != nil {
			if convertNotFoundError(err, models.ErrOrderNotFound) == models.ErrOrderNotFound {
				return nil, nil
			}
			return nil, err
		}

		var advanced bool
		err = s.withHandle(func(db *gorm.DB) error {
			result := db.WithContext(ctx).
				Model(&models.Order{}).
				Where("order_number = ? AND status = ?", candidate.ID, models.StatusWaiting).
				Updates(map[string]any{
					"status":     models.StatusNotified,
					"order_date": now,
				})
			if result.Error != nil {
				return result.Error
			}
			advanced = result.RowsAffected > 0
			return nil
		})
		if err != nil {
			return nil, err
		}
		if advanced {
			candidate.Status = models.StatusNotified
			candidate.ScheduledAt = now
			return &candidate, nil
		}
		// Lost the race; try the next candidate.
	}
}

// LateCancellationResult summarizes one late-cancellation sweep.
type LateCancellationResult struct {
	CancelledWaiting []*models.Order // WAITING -> CANCELLED
	NoShows          []*models.Order // PENDING/NOTIFIED -> NO_SHOW
	FreedTables      []int
}

// CancelLateOrders applies the late cutoff: orders more than threshold past
// their scheduled time are cancelled (WAITING) or marked NO_SHOW
// (PENDING/NOTIFIED and any table they held is freed). The order rows clear
// their table assignment before the table rows reset, so an intermediate
// observer never sees OCCUPIED with no holder.
func (s *Store) CancelLateOrders(ctx context.Context, threshold time.Duration, now time.Time) (*LateCancellationResult, error) {
	cutoff := now.Add(-threshold)
	result := &LateCancellationResult{}

	// WAITING -> CANCELLED
	var waiting []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status = ? AND order_date < ?", models.StatusWaiting, cutoff).
			Find(&waiting).Error
	})
	if err != nil {
		return nil, err
	}
	for _, o := range waiting {
		var advanced bool
		err := s.withHandle(func(db *gorm.DB) error {
			res := db.WithContext(ctx).
				Model(&models.Order{}).
				Where("order_number = ? AND status = ?", o.ID, models.StatusWaiting).
				Update("status", models.StatusCancelled)
			if res.Error != nil {
				return res.Error
			}
			advanced = res.RowsAffected > 0
			return nil
		})
		if err != nil {
			return nil, err
		}
		if advanced {
			o.Status = models.StatusCancelled
			result.CancelledWaiting = append(result.CancelledWaiting, o)
		}
	}

	// PENDING/NOTIFIED -> NO_SHOW, freeing any held table afterwards.
	var late []*models.Order
	err = s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status IN ? AND order_date < ?",
				[]models.OrderStatus{models.StatusPending, models.StatusNotified}, cutoff).
			Find(&late).Error
	})
	if err != nil {
		return nil, err
	}
	for _, o := range late {
		var advanced bool
		err := s.withHandle(func(db *gorm.DB) error {
			res := db.WithContext(ctx).
				Model(&models.Order{}).
				Where("order_number = ? AND status IN ?", o.ID,
					[]models.OrderStatus{models.StatusPending, models.StatusNotified}).
				Updates(map[string]any{
					"status":            models.StatusNoShow,
					"assigned_table_id": nil,
				})
			if res.Error != nil {
				return res.Error
			}
			advanced = res.RowsAffected > 0
			return nil
		})
		if err != nil {
			return nil, err
		}
		if !advanced {
			continue
		}
		o.Status = models.StatusNoShow
		result.NoShows = append(result.NoShows, o)
		if o.TableID != nil {
			if err := s.FreeTable(ctx, *o.TableID); err != nil {
				return nil, err
			}
			result.FreedTables = append(result.FreedTables, *o.TableID)
		}
	}

	return result, nil
}

// GetReminders selects PENDING orders whose scheduled time lies inside the
// reminder window and advances each to NOTIFIED as part of the selection, so
// a replayed tick cannot remind the same order twice.
func (s *Store) GetReminders(ctx context.Context, from, to time.Time) ([]*models.Order, error) {
	var candidates []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status = ? AND order_date >= ? AND order_date <= ?", models.StatusPending, from, to).
			Find(&candidates).Error
	})
	if err != nil {
		return nil, err
	}

	var reminded []*models.Order
	for _, o := range candidates {
		var advanced bool
		err := s.withHandle(func(db *gorm.DB) error {
			res := db.WithContext(ctx).
				Model(&models.Order{}).
				Where("order_number = ? AND status = ?", o.ID, models.StatusPending).
				Update("status", models.StatusNotified)
			if res.Error != nil {
				return res.Error
			}
			advanced = res.RowsAffected > 0
			return nil
		})
		if err != nil {
			return nil, err
		}
		if advanced {
			o.Status = models.StatusNotified
			reminded = append(reminded, o)
		}
	}
	return reminded, nil
}

// GetAutomaticInvoices selects SEATED orders seated at least the given stay
// and advances each to BILLED with total = guests x PricePerGuest. The
// advance is part of the selection, so replaying a tick is a no-op.
func (s *Store) GetAutomaticInvoices(ctx context.Context, seatedSince time.Time) ([]*models.Order, error) {
	var candidates []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status = ? AND actual_arrival_time <= ?", models.StatusSeated, seatedSince).
			Find(&candidates).Error
	})
	if err != nil {
		return nil, err
	}

	var billed []*models.Order
	for _, o := range candidates {
		total := float64(o.Guests) * models.PricePerGuest
		var advanced bool
		err := s.withHandle(func(db *gorm.DB) error {
			res := db.WithContext(ctx).
				Model(&models.Order{}).
				Where("order_number = ? AND status = ?", o.ID, models.StatusSeated).
				Updates(map[string]any{
					"status":      models.StatusBilled,
					"total_price": total,
				})
			if res.Error != nil {
				return res.Error
			}
			advanced = res.RowsAffected > 0
			return nil
		})
		if err != nil {
			return nil, err
		}
		if advanced {
			o.Status = models.StatusBilled
			o.TotalPrice = &total
			billed = append(billed, o)
		}
	}
	return billed, nil
}

// ListFutureBookable returns PENDING and NOTIFIED orders scheduled after
// the given time. These are the orders an opening-hours or table change can
// invalidate.
func (s *Store) ListFutureBookable(ctx context.Context, after time.Time) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status IN ? AND order_date > ?",
				[]models.OrderStatus{models.StatusPending, models.StatusNotified}, after).
			Order("order_date").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetRelevantOrdersForToday returns a member's active orders scheduled today.
func (s *Store) GetRelevantOrdersForToday(ctx context.Context, memberID uint) ([]*models.Order, error) {
	dayStart, dayEnd := todayBounds(time.Now())
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("subscriber_id = ? AND status IN ? AND order_date >= ? AND order_date < ?",
				memberID, models.ActiveStatuses, dayStart, dayEnd).
			Order("order_date").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetAllActiveToday returns every active order scheduled today.
func (s *Store) GetAllActiveToday(ctx context.Context) ([]*models.Order, error) {
	dayStart, dayEnd := todayBounds(time.Now())
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status IN ? AND order_date >= ? AND order_date < ?", models.ActiveStatuses, dayStart, dayEnd).
			Order("order_date").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetActiveDiners returns orders currently holding a table (SEATED/BILLED).
func (s *Store) GetActiveDiners(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status IN ?", []models.OrderStatus{models.StatusSeated, models.StatusBilled}).
			Order("assigned_table_id").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetWaitingList returns WAITING and NOTIFIED orders in arrival order.
func (s *Store) GetWaitingList(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("status IN ?", []models.OrderStatus{models.StatusWaiting, models.StatusNotified}).
			Order("date_of_placing_order").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetMemberHistory returns all of a member's orders, newest first.
func (s *Store) GetMemberHistory(ctx context.Context, memberID uint) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("subscriber_id = ?", memberID).
			Order("order_date DESC").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// nextConfirmationCode returns a random 4-digit code not held by any order
// in an active state.
func (s *Store) nextConfirmationCode(ctx context.Context) (int, error) {
	for attempt := 0; attempt < confirmationCodeAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return 0, fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		code := int(n.Int64()) + 1000

		var count int64
		err = s.withHandle(func(db *gorm.DB) error {
			return db.WithContext(ctx).
				Model(&models.Order{}).
				Where("confirmation_code = ? AND status IN ?", code, models.ActiveStatuses).
				Count(&count).Error
		})
		if err != nil {
			return 0, err
		}
		if count == 0 {
			return code, nil
		}
	}
	return 0, fmt.Errorf("confirmation code space exhausted")
}

// todayBounds returns [midnight, midnight+24h) around now.
func todayBounds(now time.Time) (time.Time, time.Time) {
	start := models.DateOf(now)
	return start, start.Add(24 * time.Hour)
}
