package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bistrokit/bistro/pkg/models"
)

// fakeStore serves fixture data for the engine: one weekly rule per ISO day,
// a fixed table multiset and a flat list of overlapping orders.
type fakeStore struct {
	hours      map[int]*models.OpeningHours
	capacities []int
	orders     []*models.Order
}

func (f *fakeStore) GetHoursForDate(_ context.Context, date time.Time) (*models.OpeningHours, error) {
	rule, ok := f.hours[models.ISODay(date)]
	if !ok {
		return nil, models.ErrHoursNotFound
	}
	return rule, nil
}

func (f *fakeStore) GetOverlappingActive(_ context.Context, t time.Time, excludeID uint) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.ID == excludeID && excludeID != 0 {
			continue
		}
		if o.ScheduledAt.After(t.Add(-2*time.Hour)) && o.ScheduledAt.Before(t.Add(2*time.Hour)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCapacities(_ context.Context) ([]int, error) {
	return f.capacities, nil
}

// Wednesday 2026-08-26, noon. The fixture restaurant is open Wednesdays
// 11:00-22:00 and closed every other day.
var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)

func newTestEngine(store *fakeStore) *Engine {
	if store.hours == nil {
		store.hours = map[int]*models.OpeningHours{
			3: {DayOfWeek: 3, OpenTime: "11:00", CloseTime: "22:00"},
		}
	}
	return NewEngine(store).WithClock(func() time.Time { return testNow })
}

func TestFeasible(t *testing.T) {
	tests := []struct {
		name       string
		capacities []int
		groups     []int
		want       bool
	}{
		{"no groups", []int{2, 4}, nil, true},
		{"one group fits", []int{2, 4}, []int{3}, true},
		{"more groups than tables", []int{4}, []int{2, 2}, false},
		{"exact packing", []int{2, 4, 6}, []int{6, 4, 2}, true},
		{"big group displaces", []int{2, 4}, []int{4, 3}, false},
		{"best fit leaves room", []int{2, 2, 6}, []int{2, 2, 5}, true},
		{"group too large for any", []int{2, 4}, []int{5}, false},
		{"order independence", []int{4, 2, 6}, []int{3, 5, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Feasible(tt.capacities, tt.groups); got != tt.want {
				t.Errorf("Feasible(%v, %v) = %v, want %v", tt.capacities, tt.groups, got, tt.want)
			}
		})
	}
}

func TestCheckAvailability_Window(t *testing.T) {
	e := newTestEngine(&fakeStore{capacities: []int{4}})
	ctx := context.Background()

	tests := []struct {
		name string
		at   time.Time
		want error
	}{
		{"too soon", testNow.Add(30 * time.Minute), models.ErrTooSoon},
		{"in the past", testNow.Add(-time.Hour), models.ErrTooSoon},
		{"too far ahead", testNow.Add(32 * 24 * time.Hour), models.ErrTooFar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CheckAvailability(ctx, tt.at, 2, 0)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckAvailability_Hours(t *testing.T) {
	e := newTestEngine(&fakeStore{capacities: []int{4}})
	ctx := context.Background()

	t.Run("inside hours approved", func(t *testing.T) {
		decision, err := e.CheckAvailability(ctx, testNow.Add(2*time.Hour), 2, 0)
		if err != nil {
			t.Fatalf("CheckAvailability: %v", err)
		}
		if !decision.Approved {
			t.Error("expected approval inside hours")
		}
	})

	t.Run("before opening", func(t *testing.T) {
		// 09:00 next Wednesday, well inside the booking window.
		at := time.Date(2026, 9, 2, 9, 0, 0, 0, time.Local)
		_, err := e.CheckAvailability(ctx, at, 2, 0)
		if !errors.Is(err, models.ErrOutsideHours) {
			t.Errorf("error = %v, want ErrOutsideHours", err)
		}
	})

	t.Run("closed day", func(t *testing.T) {
		// Thursday has no rule.
		at := time.Date(2026, 8, 27, 13, 0, 0, 0, time.Local)
		_, err := e.CheckAvailability(ctx, at, 2, 0)
		if !errors.Is(err, models.ErrOutsideHours) {
			t.Errorf("error = %v, want ErrOutsideHours", err)
		}
	})
}

func TestCheckAvailability_NoTableFits(t *testing.T) {
	e := newTestEngine(&fakeStore{capacities: []int{2, 4}})

	_, err := e.CheckAvailability(context.Background(), testNow.Add(2*time.Hour), 9, 0)
	if !errors.Is(err, models.ErrNoTables) {
		t.Errorf("error = %v, want ErrNoTables", err)
	}
}

func TestCheckAvailability_Alternatives(t *testing.T) {
	at := testNow.Add(4 * time.Hour) // 16:00

	// One table; an existing booking at the requested time blocks it, and
	// another at 16:30 blocks the first probe too.
	store := &fakeStore{
		capacities: []int{4},
		orders: []*models.Order{
			{ID: 1, Guests: 2, ScheduledAt: at},
		},
	}
	e := newTestEngine(store)

	decision, err := e.CheckAvailability(context.Background(), at, 2, 0)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if decision.Approved {
		t.Fatal("expected rejection with a conflicting booking")
	}
	// Every probed offset is still inside the ±2h overlap window of the
	// existing booking, so no alternatives survive.
	if len(decision.Alternatives) != 0 {
		t.Errorf("alternatives = %v, want none", decision.Alternatives)
	}
}

func TestCheckAvailability_AlternativeFound(t *testing.T) {
	at := testNow.Add(4 * time.Hour) // 16:00

	// Two tables; three overlapping parties make 16:00 infeasible, but one
	// of them sits outside the window of at 17:00.
	store := &fakeStore{
		capacities: []int{4, 4},
		orders: []*models.Order{
			{ID: 1, Guests: 2, ScheduledAt: at},
			{ID: 2, Guests: 2, ScheduledAt: at.Add(-90 * time.Minute)},
		},
	}
	e := newTestEngine(store)

	decision, err := e.CheckAvailability(context.Background(), at, 2, 0)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if decision.Approved {
		t.Fatal("expected rejection at the requested time")
	}
	if len(decision.Alternatives) == 0 {
		t.Fatal("expected at least one alternative")
	}
	// +60min pushes past order 2's overlap window, freeing a table.
	found := false
	for _, alt := range decision.Alternatives {
		if alt.Equal(at.Add(time.Hour)) {
			found = true
		}
	}
	if !found {
		t.Errorf("alternatives = %v, want %v included", decision.Alternatives, at.Add(time.Hour))
	}
}

func TestCheckAvailability_ExcludeID(t *testing.T) {
	at := testNow.Add(4 * time.Hour)
	store := &fakeStore{
		capacities: []int{4},
		orders: []*models.Order{
			{ID: 7, Guests: 2, ScheduledAt: at},
		},
	}
	e := newTestEngine(store)

	// Re-checking order 7 itself must not count it as a conflict.
	decision, err := e.CheckAvailability(context.Background(), at, 2, 7)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !decision.Approved {
		t.Error("expected approval when the only conflict is the order itself")
	}
}

func TestAvailableSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("closed day", func(t *testing.T) {
		e := newTestEngine(&fakeStore{capacities: []int{4}})
		slots, err := e.AvailableSlots(ctx, time.Date(2026, 8, 27, 0, 0, 0, 0, time.Local), 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(slots) != 1 || slots[0] != SlotClosed {
			t.Errorf("slots = %v, want [CLOSED]", slots)
		}
	})

	t.Run("party too large", func(t *testing.T) {
		e := newTestEngine(&fakeStore{capacities: []int{4}})
		slots, err := e.AvailableSlots(ctx, testNow, 9)
		if err != nil {
			t.Fatal(err)
		}
		if len(slots) != 1 || slots[0] != SlotFull {
			t.Errorf("slots = %v, want [FULL]", slots)
		}
	})

	t.Run("today respects the notice cutoff", func(t *testing.T) {
		e := newTestEngine(&fakeStore{capacities: []int{4}})
		slots, err := e.AvailableSlots(ctx, testNow, 2)
		if err != nil {
			t.Fatal(err)
		}
		// Now is 12:00; the first slot at or after 13:00 is "13:00", the
		// last bucket is one hour before the 22:00 close.
		if len(slots) == 0 {
			t.Fatal("expected slots")
		}
		if slots[0] != "13:00" {
			t.Errorf("first slot = %s, want 13:00", slots[0])
		}
		if last := slots[len(slots)-1]; last != "21:00" {
			t.Errorf("last slot = %s, want 21:00", last)
		}
	})

	t.Run("future day lists the full window", func(t *testing.T) {
		e := newTestEngine(&fakeStore{capacities: []int{4}})
		nextWed := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)
		slots, err := e.AvailableSlots(ctx, nextWed, 2)
		if err != nil {
			t.Fatal(err)
		}
		if slots[0] != "11:00" {
			t.Errorf("first slot = %s, want 11:00", slots[0])
		}
		// 11:00..21:00 in 30-minute steps.
		if len(slots) != 21 {
			t.Errorf("got %d slots, want 21", len(slots))
		}
	})
}

func TestRecheck(t *testing.T) {
	order := &models.Order{ID: 3, Guests: 4, ScheduledAt: testNow.Add(4 * time.Hour)}

	t.Run("still fits", func(t *testing.T) {
		e := newTestEngine(&fakeStore{capacities: []int{4}})
		ok, err := e.Recheck(context.Background(), order, []int{4})
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("expected order to still fit")
		}
	})

	t.Run("capacity shrank", func(t *testing.T) {
		e := newTestEngine(&fakeStore{capacities: []int{2}})
		ok, err := e.Recheck(context.Background(), order, []int{2})
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected order to no longer fit")
		}
	})

	t.Run("displaced by overlap", func(t *testing.T) {
		store := &fakeStore{
			capacities: []int{4},
			orders: []*models.Order{
				{ID: 9, Guests: 4, ScheduledAt: order.ScheduledAt},
			},
		}
		e := newTestEngine(store)
		ok, err := e.Recheck(context.Background(), order, []int{4})
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected order to be displaced")
		}
	})
}
