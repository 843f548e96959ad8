package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/bistrokit/bistro/pkg/models"
)

func TestCreateOrder_AssignsUniqueCode(t *testing.T) {
	st := newTestStore(t)

	seen := map[int]bool{}
	for i := 0; i < 20; i++ {
		o := mustCreateOrder(t, st, &models.Order{
			ScheduledAt: time.Now().Add(time.Hour),
			Guests:      2,
			Status:      models.StatusPending,
			Phone:       "555-0100",
		})
		if o.Code < 1000 || o.Code > 9999 {
			t.Fatalf("code %d out of range", o.Code)
		}
		if seen[o.Code] {
			t.Fatalf("code %d reissued while active", o.Code)
		}
		seen[o.Code] = true
	}
}

func TestGetOrderByActiveCode(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: time.Now().Add(time.Hour),
		Guests:      2,
		Status:      models.StatusPending,
		Phone:       "555-0100",
	})

	got, err := st.GetOrderByActiveCode(ctx, o.Code)
	if err != nil {
		t.Fatalf("GetOrderByActiveCode: %v", err)
	}
	if got.ID != o.ID {
		t.Errorf("got order %d, want %d", got.ID, o.ID)
	}

	// A terminal order no longer answers to its code.
	if err := st.CancelOrder(ctx, o.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if _, err := st.GetOrderByActiveCode(ctx, o.Code); !errors.Is(err, models.ErrOrderNotFound) {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
}

func TestHasActiveOrderToday(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: time.Now(),
		Guests:      2,
		Status:      models.StatusPending,
		Phone:       "555-0100",
		Email:       "ada@example.com",
	})

	tests := []struct {
		name   string
		phone  string
		email  string
		active bool
	}{
		{"matching phone", "555-0100", "", true},
		{"matching email", "", "ada@example.com", true},
		{"no match", "555-9999", "bob@example.com", false},
		{"empty contact", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.HasActiveOrderToday(ctx, tt.phone, tt.email)
			if err != nil {
				t.Fatalf("HasActiveOrderToday: %v", err)
			}
			if got != tt.active {
				t.Errorf("got %v, want %v", got, tt.active)
			}
		})
	}
}

func TestGetOverlappingActive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	inside := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: base.Add(time.Hour), Guests: 2, Status: models.StatusPending, Phone: "1",
	})
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: base.Add(3 * time.Hour), Guests: 2, Status: models.StatusPending, Phone: "2",
	})
	cancelled := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: base.Add(time.Hour), Guests: 2, Status: models.StatusPending, Phone: "3",
	})
	if err := st.CancelOrder(ctx, cancelled.ID); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetOverlappingActive(ctx, base, 0)
	if err != nil {
		t.Fatalf("GetOverlappingActive: %v", err)
	}
	if len(got) != 1 || got[0].ID != inside.ID {
		t.Fatalf("got %d overlapping orders, want only order %d", len(got), inside.ID)
	}

	// Excluding the only match leaves nothing.
	got, err = st.GetOverlappingActive(ctx, base, inside.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d orders with exclusion, want 0", len(got))
	}
}

func TestSeatOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusPending, Phone: "1",
	})

	if err := st.SeatOrder(ctx, o.ID, 7, now); err != nil {
		t.Fatalf("SeatOrder: %v", err)
	}
	got, _ := st.GetOrderByID(ctx, o.ID)
	if got.Status != models.StatusSeated {
		t.Errorf("status = %s, want SEATED", got.Status)
	}
	if got.TableID == nil || *got.TableID != 7 {
		t.Errorf("table = %v, want 7", got.TableID)
	}
	if got.ArrivalAt == nil {
		t.Error("arrival time not stamped")
	}

	// Seating an already seated order is a state conflict.
	if err := st.SeatOrder(ctx, o.ID, 8, now); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("error = %v, want ErrWrongState", err)
	}
}

func TestUpdateOrderStatus_GuardsFromSet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: time.Now(), Guests: 2, Status: models.StatusPending, Phone: "1",
	})

	err := st.UpdateOrderStatus(ctx, o.ID, []models.OrderStatus{models.StatusSeated}, models.StatusBilled)
	if !errors.Is(err, models.ErrWrongState) {
		t.Fatalf("error = %v, want ErrWrongState", err)
	}

	err = st.UpdateOrderStatus(ctx, o.ID, []models.OrderStatus{models.StatusPending}, models.StatusNotified)
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	got, _ := st.GetOrderByID(ctx, o.ID)
	if got.Status != models.StatusNotified {
		t.Errorf("status = %s, want NOTIFIED", got.Status)
	}
}

func TestCancelOrder_FreesHeldTable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	mustAddTable(t, st, 1, 4)

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusPending, Phone: "1",
	})
	if _, err := st.ClaimTable(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := st.SeatOrder(ctx, o.ID, 1, now); err != nil {
		t.Fatal(err)
	}

	if err := st.CancelOrder(ctx, o.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	got, _ := st.GetOrderByID(ctx, o.ID)
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.TableID != nil {
		t.Errorf("table assignment not cleared: %v", *got.TableID)
	}
	table, _ := st.GetTable(ctx, 1)
	if table.Status != models.TableAvailable {
		t.Errorf("table status = %s, want AVAILABLE", table.Status)
	}

	// Cancelling twice is a state conflict.
	if err := st.CancelOrder(ctx, o.ID); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("error = %v, want ErrWrongState", err)
	}
}

func TestReleaseOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	mustAddTable(t, st, 1, 4)

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusPending, Phone: "1",
	})

	// Releasing an order that holds no table is a state conflict.
	if _, err := st.ReleaseOrder(ctx, o.ID, models.StatusCompleted); !errors.Is(err, models.ErrWrongState) {
		t.Fatalf("error = %v, want ErrWrongState", err)
	}

	if _, err := st.ClaimTable(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := st.SeatOrder(ctx, o.ID, 1, now); err != nil {
		t.Fatal(err)
	}

	freed, err := st.ReleaseOrder(ctx, o.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("ReleaseOrder: %v", err)
	}
	if freed != 1 {
		t.Errorf("freed table = %d, want 1", freed)
	}

	got, _ := st.GetOrderByID(ctx, o.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.TableID != nil {
		t.Errorf("table assignment not cleared: %v", *got.TableID)
	}
	if got.LeaveAt == nil {
		t.Error("leave time not stamped on completion")
	}
	table, _ := st.GetTable(ctx, 1)
	if table.Status != models.TableAvailable {
		t.Errorf("table status = %s, want AVAILABLE", table.Status)
	}

	// The order is terminal now; a second release is a state conflict.
	if _, err := st.ReleaseOrder(ctx, o.ID, models.StatusCancelled); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("error = %v, want ErrWrongState", err)
	}
}

func TestEnteredWaitlistSurvivesTransitions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	mustAddTable(t, st, 1, 4)

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, PlacedAt: now.Add(-time.Hour),
		Guests: 2, Status: models.StatusWaiting, Phone: "1",
		EnteredWaitlist: true,
	})

	promoted, err := st.PromoteWaitlisted(ctx, 4, now)
	if err != nil {
		t.Fatalf("PromoteWaitlisted: %v", err)
	}
	if promoted == nil || promoted.ID != o.ID {
		t.Fatalf("promoted = %v, want order %d", promoted, o.ID)
	}
	got, _ := st.GetOrderByID(ctx, o.ID)
	if !got.EnteredWaitlist {
		t.Error("entered_waitlist cleared by promotion")
	}

	if err := st.CancelOrder(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetOrderByID(ctx, o.ID)
	if !got.EnteredWaitlist {
		t.Error("entered_waitlist cleared by cancellation")
	}
}

func TestProcessPayment(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	mustAddTable(t, st, 3, 4)

	o := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusPending, Phone: "1",
	})
	if _, err := st.ClaimTable(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := st.SeatOrder(ctx, o.ID, 3, now); err != nil {
		t.Fatal(err)
	}

	freed, err := st.ProcessPayment(ctx, o.ID, 180.50, now)
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if freed != 3 {
		t.Errorf("freed table = %d, want 3", freed)
	}

	got, _ := st.GetOrderByID(ctx, o.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.TotalPrice == nil || *got.TotalPrice != 180.50 {
		t.Errorf("total = %v, want 180.50", got.TotalPrice)
	}
	if got.LeaveAt == nil {
		t.Error("leave time not stamped")
	}
	table, _ := st.GetTable(ctx, 3)
	if table.Status != models.TableAvailable {
		t.Errorf("table status = %s, want AVAILABLE", table.Status)
	}

	// Paying a completed order is a state conflict.
	if _, err := st.ProcessPayment(ctx, o.ID, 180.50, now); !errors.Is(err, models.ErrWrongState) {
		t.Errorf("error = %v, want ErrWrongState", err)
	}
}

func TestPromoteWaitlisted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Oldest first by placement time; the 6-guest entry does not fit a
	// 4-seat table and must be skipped.
	big := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, PlacedAt: now.Add(-3 * time.Hour),
		Guests: 6, Status: models.StatusWaiting, Phone: "big",
	})
	second := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, PlacedAt: now.Add(-time.Hour),
		Guests: 2, Status: models.StatusWaiting, Phone: "second",
	})
	first := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, PlacedAt: now.Add(-2 * time.Hour),
		Guests: 4, Status: models.StatusWaiting, Phone: "first",
	})

	promoted, err := st.PromoteWaitlisted(ctx, 4, now)
	if err != nil {
		t.Fatalf("PromoteWaitlisted: %v", err)
	}
	if promoted == nil || promoted.ID != first.ID {
		t.Fatalf("promoted = %v, want order %d", promoted, first.ID)
	}
	if promoted.Status != models.StatusNotified {
		t.Errorf("status = %s, want NOTIFIED", promoted.Status)
	}

	// The scheduled time resets to the promotion instant.
	got, _ := st.GetOrderByID(ctx, first.ID)
	if got.ScheduledAt.Before(now.Add(-time.Second)) {
		t.Errorf("order_date not reset: %v", got.ScheduledAt)
	}

	promoted, err = st.PromoteWaitlisted(ctx, 4, now)
	if err != nil {
		t.Fatal(err)
	}
	if promoted == nil || promoted.ID != second.ID {
		t.Fatalf("second promotion = %v, want order %d", promoted, second.ID)
	}

	// Only the oversized entry remains; nothing fits.
	promoted, err = st.PromoteWaitlisted(ctx, 4, now)
	if err != nil {
		t.Fatal(err)
	}
	if promoted != nil {
		t.Errorf("promoted order %d, want none", promoted.ID)
	}

	gotBig, _ := st.GetOrderByID(ctx, big.ID)
	if gotBig.Status != models.StatusWaiting {
		t.Errorf("oversized entry status = %s, want WAITING", gotBig.Status)
	}
}

func TestCancelLateOrders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	mustAddTable(t, st, 5, 4)

	lateWaiting := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(-30 * time.Minute), Guests: 2, Status: models.StatusWaiting, Phone: "w",
	})
	lateNotified := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(-20 * time.Minute), Guests: 2, Status: models.StatusNotified, Phone: "n",
	})
	onTime := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(-5 * time.Minute), Guests: 2, Status: models.StatusPending, Phone: "p",
	})

	// Give the notified order a held table to verify it is freed.
	if err := st.withHandle(func(db *gorm.DB) error {
		return db.Model(&models.Order{}).
			Where("order_number = ?", lateNotified.ID).
			Update("assigned_table_id", 5).Error
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ClaimTable(ctx, 5); err != nil {
		t.Fatal(err)
	}

	result, err := st.CancelLateOrders(ctx, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("CancelLateOrders: %v", err)
	}

	if len(result.CancelledWaiting) != 1 || result.CancelledWaiting[0].ID != lateWaiting.ID {
		t.Errorf("cancelled waiting = %v", result.CancelledWaiting)
	}
	if len(result.NoShows) != 1 || result.NoShows[0].ID != lateNotified.ID {
		t.Errorf("no-shows = %v", result.NoShows)
	}
	if len(result.FreedTables) != 1 || result.FreedTables[0] != 5 {
		t.Errorf("freed tables = %v, want [5]", result.FreedTables)
	}

	table, _ := st.GetTable(ctx, 5)
	if table.Status != models.TableAvailable {
		t.Errorf("table status = %s, want AVAILABLE", table.Status)
	}
	got, _ := st.GetOrderByID(ctx, onTime.ID)
	if got.Status != models.StatusPending {
		t.Errorf("on-time order status = %s, want PENDING", got.Status)
	}

	// Replaying the sweep finds nothing new.
	result, err = st.CancelLateOrders(ctx, 15*time.Minute, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.CancelledWaiting) != 0 || len(result.NoShows) != 0 {
		t.Errorf("second sweep not empty: %+v", result)
	}
}

func TestGetReminders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	soon := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(20 * time.Minute), Guests: 2, Status: models.StatusPending, Phone: "a",
	})
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(3 * time.Hour), Guests: 2, Status: models.StatusPending, Phone: "b",
	})

	reminded, err := st.GetReminders(ctx, now, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("GetReminders: %v", err)
	}
	if len(reminded) != 1 || reminded[0].ID != soon.ID {
		t.Fatalf("reminded = %v, want only order %d", reminded, soon.ID)
	}
	if reminded[0].Status != models.StatusNotified {
		t.Errorf("status = %s, want NOTIFIED", reminded[0].Status)
	}

	// The advance is part of the selection; a replayed tick is empty.
	reminded, err = st.GetReminders(ctx, now, now.Add(30*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(reminded) != 0 {
		t.Errorf("second tick reminded %d orders, want 0", len(reminded))
	}
}

func TestGetAutomaticInvoices(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	longStay := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(-3 * time.Hour), Guests: 3, Status: models.StatusPending, Phone: "a",
	})
	if err := st.SeatOrder(ctx, longStay.ID, 1, now.Add(-3*time.Hour)); err != nil {
		t.Fatal(err)
	}
	recent := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now.Add(-30 * time.Minute), Guests: 2, Status: models.StatusPending, Phone: "b",
	})
	if err := st.SeatOrder(ctx, recent.ID, 2, now.Add(-30*time.Minute)); err != nil {
		t.Fatal(err)
	}

	billed, err := st.GetAutomaticInvoices(ctx, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("GetAutomaticInvoices: %v", err)
	}
	if len(billed) != 1 || billed[0].ID != longStay.ID {
		t.Fatalf("billed = %v, want only order %d", billed, longStay.ID)
	}
	if billed[0].Status != models.StatusBilled {
		t.Errorf("status = %s, want BILLED", billed[0].Status)
	}
	if billed[0].TotalPrice == nil || *billed[0].TotalPrice != 3*models.PricePerGuest {
		t.Errorf("total = %v, want %v", billed[0].TotalPrice, 3*models.PricePerGuest)
	}

	// Idempotent: the billed order no longer matches.
	billed, err = st.GetAutomaticInvoices(ctx, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(billed) != 0 {
		t.Errorf("second tick billed %d orders, want 0", len(billed))
	}
}

func TestGetWaitingList_OrderedByPlacement(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	second := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, PlacedAt: now.Add(-time.Hour),
		Guests: 2, Status: models.StatusWaiting, Phone: "2",
	})
	first := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, PlacedAt: now.Add(-2 * time.Hour),
		Guests: 2, Status: models.StatusWaiting, Phone: "1",
	})
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusPending, Phone: "3",
	})

	list, err := st.GetWaitingList(ctx)
	if err != nil {
		t.Fatalf("GetWaitingList: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("order = [%d %d], want [%d %d]", list[0].ID, list[1].ID, first.ID, second.ID)
	}
}

func TestGetMemberHistory(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mine := mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusCompleted, MemberID: 42, Phone: "m",
	})
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: now, Guests: 2, Status: models.StatusCompleted, MemberID: 7, Phone: "o",
	})

	history, err := st.GetMemberHistory(ctx, 42)
	if err != nil {
		t.Fatalf("GetMemberHistory: %v", err)
	}
	if len(history) != 1 || history[0].ID != mine.ID {
		t.Fatalf("history = %v, want only order %d", history, mine.ID)
	}
}
