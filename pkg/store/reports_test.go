package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/bistrokit/bistro/pkg/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestGetPerformanceReport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Fixed month so the assertions are deterministic.
	scheduled := time.Date(2026, 7, 10, 19, 0, 0, 0, time.Local)

	// Completed, 20 minutes late, 150-minute stay (30-minute overstay).
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: scheduled,
		Guests:      2,
		Status:      models.StatusCompleted,
		Phone:       "a",
		ArrivalAt:   timePtr(scheduled.Add(20 * time.Minute)),
		LeaveAt:     timePtr(scheduled.Add(20*time.Minute + 150*time.Minute)),
	})
	// Completed, on time, 90-minute stay, came through the waitlist.
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt:     scheduled,
		Guests:          4,
		Status:          models.StatusCompleted,
		Phone:           "b",
		EnteredWaitlist: true,
		ArrivalAt:       timePtr(scheduled),
		LeaveAt:         timePtr(scheduled.Add(90 * time.Minute)),
	})
	// No-show: counts nowhere except the total scan.
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: scheduled,
		Guests:      2,
		Status:      models.StatusNoShow,
		Phone:       "c",
	})
	// Different month: must not appear.
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: scheduled.AddDate(0, 1, 0),
		Guests:      2,
		Status:      models.StatusCompleted,
		Phone:       "d",
		ArrivalAt:   timePtr(scheduled.AddDate(0, 1, 0).Add(time.Hour)),
	})

	report, err := st.GetPerformanceReport(ctx, 7, 2026)
	if err != nil {
		t.Fatalf("GetPerformanceReport: %v", err)
	}

	wants := map[string]float64{
		ReportCompleted:    2,
		ReportWaitlisted:   1,
		ReportLateArrivals: 1,
		ReportAvgLateness:  10,  // (20 + 0) / 2
		ReportAvgStay:      120, // (150 + 90) / 2
		ReportAvgOverstay:  15,  // (30 + 0) / 2
	}
	for key, want := range wants {
		got, ok := report[key]
		if !ok {
			t.Errorf("missing key %q", key)
			continue
		}
		if math.Abs(got-want) > 0.01 {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}

func TestGetPerformanceReport_EmptyMonth(t *testing.T) {
	st := newTestStore(t)

	report, err := st.GetPerformanceReport(context.Background(), 1, 2026)
	if err != nil {
		t.Fatalf("GetPerformanceReport: %v", err)
	}
	for key, v := range report {
		if v != 0 {
			t.Errorf("%s = %v, want 0 for an empty month", key, v)
		}
	}
}

func TestGetSubscriptionReport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	day10 := time.Date(2026, 7, 10, 19, 0, 0, 0, time.Local)
	day12 := time.Date(2026, 7, 12, 13, 0, 0, 0, time.Local)

	// Two member orders on the 10th, one via the waitlist.
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: day10, Guests: 2, Status: models.StatusCompleted, MemberID: 1, Phone: "a",
	})
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: day10, Guests: 2, Status: models.StatusCompleted, MemberID: 2,
		EnteredWaitlist: true, Phone: "b",
	})
	// One member order on the 12th.
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: day12, Guests: 2, Status: models.StatusCompleted, MemberID: 1, Phone: "a",
	})
	// Guest orders are excluded.
	mustCreateOrder(t, st, &models.Order{
		ScheduledAt: day10, Guests: 2, Status: models.StatusCompleted, Phone: "g",
	})

	report, err := st.GetSubscriptionReport(ctx, 7, 2026)
	if err != nil {
		t.Fatalf("GetSubscriptionReport: %v", err)
	}

	wants := map[string]float64{
		"10":   2,
		"W-10": 1,
		"12":   1,
	}
	if len(report) != len(wants) {
		t.Errorf("report has %d keys, want %d: %v", len(report), len(wants), report)
	}
	for key, want := range wants {
		if got := report[key]; got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
}
