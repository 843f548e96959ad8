// Package reservation implements the availability engine: opening-hours and
// booking-window validation, best-fit-decreasing feasibility over overlapping
// reservations, alternative-time suggestion and slot enumeration.
package reservation

import (
	"context"
	"sort"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/models"
)

// Booking window and slot enumeration constants.
const (
	// MinNotice is how far ahead a reservation must be placed.
	MinNotice = 60 * time.Minute
	// MaxAdvance is how far ahead reservations are accepted.
	MaxAdvance = 31 * 24 * time.Hour
	// SlotInterval is the bucket width of the available-slots walk.
	SlotInterval = 30 * time.Minute
	// LastSeating keeps the final bucket a full hour before close.
	LastSeating = 60 * time.Minute
)

// Slot list sentinels: a closed day and a fully booked day.
const (
	SlotClosed = "CLOSED"
	SlotFull   = "FULL"
)

// AlternativeOffsets are probed in this order when a requested time is
// infeasible; feasible ones are reported in the same order.
var AlternativeOffsets = []time.Duration{
	-30 * time.Minute,
	+30 * time.Minute,
	-60 * time.Minute,
	+60 * time.Minute,
}

// Store is the data-access subset the engine needs.
type Store interface {
	GetHoursForDate(ctx context.Context, date time.Time) (*models.OpeningHours, error)
	GetOverlappingActive(ctx context.Context, t time.Time, excludeID uint) ([]*models.Order, error)
	GetCapacities(ctx context.Context) ([]int, error)
}

// Engine answers availability questions. It holds no state of its own; all
// decisions are pure functions of the store's contents and the clock.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates an availability engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock overrides the engine's clock. Tests use this to pin "now".
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Decision is the outcome of an availability check. Approved means the
// requested time works; otherwise Alternatives lists feasible nearby times
// (possibly empty).
type Decision struct {
	Approved     bool
	Alternatives []time.Time
}

// CheckAvailability validates the booking window and opening hours, then
// tests best-fit feasibility at the requested time. When the requested slot
// is infeasible, nearby offsets are probed for alternatives.
//
// excludeID removes an existing order from the overlap set (0 for none);
// used when re-checking an order that is already booked.
func (e *Engine) CheckAvailability(ctx context.Context, at time.Time, guests int, excludeID uint) (*Decision, error) {
	now := e.now()

	if err := e.checkWindow(now, at); err != nil {
		return nil, err
	}
	if err := e.checkHours(ctx, at); err != nil {
		return nil, err
	}

	capacities, err := e.store.GetCapacities(ctx)
	if err != nil {
		return nil, err
	}
	if !fitsAnyTable(capacities, guests) {
		return nil, models.ErrNoTables
	}

	ok, err := e.feasibleAt(ctx, at, guests, excludeID, capacities)
	if err != nil {
		return nil, err
	}
	if ok {
		return &Decision{Approved: true}, nil
	}

	alternatives, err := e.alternatives(ctx, now, at, guests, excludeID, capacities)
	if err != nil {
		return nil, err
	}
	logger.Debug("reservation infeasible, probed alternatives",
		"requested", at, "guests", guests, "alternatives", len(alternatives))
	return &Decision{Approved: false, Alternatives: alternatives}, nil
}

// Recheck reports whether an existing order still fits given the current
// tables. Opening hours and booking window are not re-validated; this backs
// the administrative table-mutation sweeps.
func (e *Engine) Recheck(ctx context.Context, order *models.Order, capacities []int) (bool, error) {
	if !fitsAnyTable(capacities, order.Guests) {
		return false, nil
	}
	overlapping, err := e.store.GetOverlappingActive(ctx, order.ScheduledAt, order.ID)
	if err != nil {
		return false, err
	}
	groups := groupSizes(overlapping, order.Guests)
	return Feasible(capacities, groups), nil
}

// AvailableSlots enumerates the feasible 30-minute buckets of a day for a
// party size. Returns [SlotClosed] when the day is closed and [SlotFull]
// when every bucket is infeasible or already past the notice cutoff.
func (e *Engine) AvailableSlots(ctx context.Context, date time.Time, guests int) ([]string, error) {
	rule, err := e.store.GetHoursForDate(ctx, date)
	if err != nil {
		if err == models.ErrHoursNotFound {
			return []string{SlotClosed}, nil
		}
		return nil, err
	}
	open, close, ok := rule.Window()
	if !ok {
		return []string{SlotClosed}, nil
	}

	capacities, err := e.store.GetCapacities(ctx)
	if err != nil {
		return nil, err
	}
	if !fitsAnyTable(capacities, guests) {
		return []string{SlotFull}, nil
	}

	day := models.DateOf(date)
	cutoff := e.now().Add(MinNotice)
	lastBucket := close - int(LastSeating.Minutes())

	var slots []string
	for minute := open; minute <= lastBucket; minute += int(SlotInterval.Minutes()) {
		at := day.Add(time.Duration(minute) * time.Minute)
		if at.Before(cutoff) {
			continue
		}
		ok, err := e.feasibleAt(ctx, at, guests, 0, capacities)
		if err != nil {
			return nil, err
		}
		if ok {
			slots = append(slots, models.FormatDayTime(minute))
		}
	}

	if len(slots) == 0 {
		return []string{SlotFull}, nil
	}
	return slots, nil
}

// WithinHours reports whether t falls inside the effective opening-hours
// rule for its date, as models.ErrOutsideHours or nil. Administrative
// sweeps use it to find orders an hours change stranded.
func (e *Engine) WithinHours(ctx context.Context, t time.Time) error {
	return e.checkHours(ctx, t)
}

// checkWindow enforces the [now+60min, now+31d] booking window.
func (e *Engine) checkWindow(now, at time.Time) error {
	if at.Before(now.Add(MinNotice)) {
		return models.ErrTooSoon
	}
	if at.After(now.Add(MaxAdvance)) {
		return models.ErrTooFar
	}
	return nil
}

// checkHours enforces the effective opening-hours rule for the date of at.
func (e *Engine) checkHours(ctx context.Context, at time.Time) error {
	rule, err := e.store.GetHoursForDate(ctx, at)
	if err != nil {
		if err == models.ErrHoursNotFound {
			return models.ErrOutsideHours
		}
		return err
	}
	open, close, ok := rule.Window()
	if !ok {
		return models.ErrOutsideHours
	}
	minute := models.MinutesOfDay(at)
	if minute < open || minute > close {
		return models.ErrOutsideHours
	}
	return nil
}

// feasibleAt runs the best-fit test at one candidate time.
func (e *Engine) feasibleAt(ctx context.Context, at time.Time, guests int, excludeID uint, capacities []int) (bool, error) {
	overlapping, err := e.store.GetOverlappingActive(ctx, at, excludeID)
	if err != nil {
		return false, err
	}
	return Feasible(capacities, groupSizes(overlapping, guests)), nil
}

// alternatives probes the fixed offsets around an infeasible time. Offsets
// failing the booking window or opening hours are silently filtered.
func (e *Engine) alternatives(ctx context.Context, now, at time.Time, guests int, excludeID uint, capacities []int) ([]time.Time, error) {
	var result []time.Time
	for _, offset := range AlternativeOffsets {
		candidate := at.Add(offset)
		if e.checkWindow(now, candidate) != nil {
			continue
		}
		if err := e.checkHours(ctx, candidate); err != nil {
			if err == models.ErrOutsideHours {
				continue
			}
			return nil, err
		}
		ok, err := e.feasibleAt(ctx, candidate, guests, excludeID, capacities)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, candidate)
		}
	}
	return result, nil
}

// Feasible decides whether every group can get its own table, using
// best-fit-decreasing: groups sorted largest first, each assigned to the
// smallest unused table that still fits. The function is pure; for fixed
// inputs the decision is always the same.
func Feasible(capacities, groups []int) bool {
	if len(groups) == 0 {
		return true
	}
	if len(groups) > len(capacities) {
		return false
	}

	free := make([]int, len(capacities))
	copy(free, capacities)
	sort.Ints(free)

	sorted := make([]int, len(groups))
	copy(sorted, groups)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	used := make([]bool, len(free))
	for _, group := range sorted {
		placed := false
		for i, capacity := range free {
			if used[i] || capacity < group {
				continue
			}
			used[i] = true
			placed = true
			break
		}
		if !placed {
			return false
		}
	}
	return true
}

// fitsAnyTable reports whether any physical table can hold the party at all.
func fitsAnyTable(capacities []int, guests int) bool {
	for _, c := range capacities {
		if c >= guests {
			return true
		}
	}
	return false
}

// groupSizes builds the feasibility multiset: existing overlapping orders'
// guests plus the candidate party.
func groupSizes(orders []*models.Order, guests int) []int {
	groups := make([]int, 0, len(orders)+1)
	for _, o := range orders {
		groups = append(groups, o.Guests)
	}
	return append(groups, guests)
}
