package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bistrokit/bistro/pkg/models"
)

func TestGetHoursForDate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Weekly rule for Wednesdays.
	err := st.UpsertOpeningHours(ctx, &models.OpeningHours{
		DayOfWeek: 3, OpenTime: "11:00", CloseTime: "22:00",
	})
	if err != nil {
		t.Fatalf("UpsertOpeningHours: %v", err)
	}

	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)

	t.Run("weekly rule", func(t *testing.T) {
		rule, err := st.GetHoursForDate(ctx, wednesday)
		if err != nil {
			t.Fatalf("GetHoursForDate: %v", err)
		}
		if rule.OpenTime != "11:00" || rule.CloseTime != "22:00" {
			t.Errorf("window = %s-%s, want 11:00-22:00", rule.OpenTime, rule.CloseTime)
		}
	})

	t.Run("specific date beats weekly rule", func(t *testing.T) {
		date := models.DateOf(wednesday)
		err := st.UpsertOpeningHours(ctx, &models.OpeningHours{
			SpecificDate: &date, IsClosed: true,
		})
		if err != nil {
			t.Fatalf("UpsertOpeningHours: %v", err)
		}

		rule, err := st.GetHoursForDate(ctx, wednesday)
		if err != nil {
			t.Fatalf("GetHoursForDate: %v", err)
		}
		if !rule.IsClosed {
			t.Error("expected the specific-date closure to win")
		}

		// The next Wednesday still follows the weekly rule.
		rule, err = st.GetHoursForDate(ctx, wednesday.AddDate(0, 0, 7))
		if err != nil {
			t.Fatalf("GetHoursForDate: %v", err)
		}
		if rule.IsClosed {
			t.Error("weekly rule should apply to other Wednesdays")
		}
	})

	t.Run("no rule at all", func(t *testing.T) {
		monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.Local)
		_, err := st.GetHoursForDate(ctx, monday)
		if !errors.Is(err, models.ErrHoursNotFound) {
			t.Errorf("error = %v, want ErrHoursNotFound", err)
		}
	})
}

func TestUpsertOpeningHours_ReplacesExisting(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.UpsertOpeningHours(ctx, &models.OpeningHours{
		DayOfWeek: 5, OpenTime: "11:00", CloseTime: "22:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = st.UpsertOpeningHours(ctx, &models.OpeningHours{
		DayOfWeek: 5, OpenTime: "12:00", CloseTime: "23:00",
	})
	if err != nil {
		t.Fatal(err)
	}

	rules, err := st.ListOpeningHours(ctx)
	if err != nil {
		t.Fatalf("ListOpeningHours: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1 (upsert must replace)", len(rules))
	}
	if rules[0].OpenTime != "12:00" || rules[0].CloseTime != "23:00" {
		t.Errorf("window = %s-%s, want 12:00-23:00", rules[0].OpenTime, rules[0].CloseTime)
	}
}

func TestUpsertOpeningHours_Validation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rule models.OpeningHours
	}{
		{"day out of range", models.OpeningHours{DayOfWeek: 8, OpenTime: "11:00", CloseTime: "22:00"}},
		{"bad open time", models.OpeningHours{DayOfWeek: 1, OpenTime: "25:00", CloseTime: "22:00"}},
		{"bad close time", models.OpeningHours{DayOfWeek: 1, OpenTime: "11:00", CloseTime: "9pm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := st.UpsertOpeningHours(ctx, &tt.rule); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
