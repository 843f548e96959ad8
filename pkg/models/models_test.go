package models

import (
	"testing"
	"time"
)

func TestOrderStatus(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		active   bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusWaiting, true, false},
		{StatusNotified, true, false},
		{StatusSeated, true, false},
		{StatusBilled, true, false},
		{StatusCompleted, false, true},
		{StatusCancelled, false, true},
		{StatusNoShow, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if !tt.status.IsValid() {
				t.Errorf("IsValid() = false for known status")
			}
		})
	}

	if OrderStatus("BOGUS").IsValid() {
		t.Error("unknown status must not be valid")
	}
}

func TestRole(t *testing.T) {
	for _, r := range []Role{RoleMember, RoleWorker, RoleManager, RoleGuest} {
		if !r.IsValid() {
			t.Errorf("Role(%q).IsValid() = false", r)
		}
	}
	if Role("ADMIN").IsValid() {
		t.Error("unknown role must not be valid")
	}

	if RoleMember.IsStaff() || RoleGuest.IsStaff() {
		t.Error("customers are not staff")
	}
	if !RoleWorker.IsStaff() || !RoleManager.IsStaff() {
		t.Error("workers and managers are staff")
	}
}

func TestOrder_BasePrice(t *testing.T) {
	o := &Order{Guests: 3}
	if got := o.BasePrice(); got != 3*PricePerGuest {
		t.Errorf("BasePrice() = %v, want %v", got, 3*PricePerGuest)
	}

	invoiced := 260.5
	o.TotalPrice = &invoiced
	if got := o.BasePrice(); got != invoiced {
		t.Errorf("BasePrice() = %v, want stored total %v", got, invoiced)
	}
}

func TestOrder_ContactMatches(t *testing.T) {
	o := &Order{Phone: "555-0100", Email: "ana@example.com"}

	tests := []struct {
		name  string
		phone string
		email string
		want  bool
	}{
		{"phone match", "555-0100", "", true},
		{"email match", "", "ana@example.com", true},
		{"wrong phone right email", "555-9999", "ana@example.com", true},
		{"no match", "555-9999", "bob@example.com", false},
		{"empty contact never matches", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.ContactMatches(tt.phone, tt.email); got != tt.want {
				t.Errorf("ContactMatches(%q, %q) = %v, want %v", tt.phone, tt.email, got, tt.want)
			}
		})
	}
}

func TestOrder_IsGuest(t *testing.T) {
	if !(&Order{MemberID: 0}).IsGuest() {
		t.Error("zero member id means guest")
	}
	if (&Order{MemberID: 12}).IsGuest() {
		t.Error("nonzero member id means member")
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{100.004, 100.00},
		{100.005, 100.01},
		{0, 0},
		{99.999, 100.00},
	}
	for _, tt := range tests {
		if got := RoundCents(tt.in); got != tt.want {
			t.Errorf("RoundCents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTable_Validate(t *testing.T) {
	if err := (&Table{ID: 1, Capacity: 4}).Validate(); err != nil {
		t.Errorf("valid table rejected: %v", err)
	}
	if err := (&Table{ID: 0, Capacity: 4}).Validate(); err == nil {
		t.Error("zero id accepted")
	}
	if err := (&Table{ID: 1, Capacity: 0}).Validate(); err == nil {
		t.Error("zero capacity accepted")
	}
}

func TestOpeningHours_Validate(t *testing.T) {
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		hours   OpeningHours
		wantErr bool
	}{
		{"weekday rule", OpeningHours{DayOfWeek: 1, OpenTime: "11:00", CloseTime: "22:00"}, false},
		{"date rule", OpeningHours{SpecificDate: &date, OpenTime: "11:00", CloseTime: "18:00"}, false},
		{"closed day skips time check", OpeningHours{DayOfWeek: 7, IsClosed: true}, false},
		{"day out of range", OpeningHours{DayOfWeek: 8, OpenTime: "11:00", CloseTime: "22:00"}, true},
		{"bad open time", OpeningHours{DayOfWeek: 1, OpenTime: "25:00", CloseTime: "22:00"}, true},
		{"bad close time", OpeningHours{DayOfWeek: 1, OpenTime: "11:00", CloseTime: "2pm"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDayTimeHelpers(t *testing.T) {
	m, err := ParseDayTime("13:45")
	if err != nil || m != 13*60+45 {
		t.Errorf("ParseDayTime = %d, %v", m, err)
	}
	if got := FormatDayTime(13*60 + 45); got != "13:45" {
		t.Errorf("FormatDayTime = %q", got)
	}

	// ISO-8601 weekdays: Monday=1, Sunday=7.
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if got := ISODay(monday); got != 1 {
		t.Errorf("ISODay(Monday) = %d", got)
	}
	if got := ISODay(sunday); got != 7 {
		t.Errorf("ISODay(Sunday) = %d", got)
	}

	noon := time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC)
	if got := MinutesOfDay(noon); got != 750 {
		t.Errorf("MinutesOfDay = %d", got)
	}
	if got := DateOf(noon); got.Hour() != 0 || got.Day() != 24 {
		t.Errorf("DateOf = %v", got)
	}
}

func TestUser_FullName(t *testing.T) {
	u := &User{Username: "ana", FirstName: "Ana", LastName: "Silva"}
	if got := u.FullName(); got != "Ana Silva" {
		t.Errorf("FullName() = %q", got)
	}

	u = &User{Username: "ana"}
	if got := u.FullName(); got != "ana" {
		t.Errorf("FullName() fallback = %q", got)
	}
}
