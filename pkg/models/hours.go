package models

import (
	"fmt"
	"time"
)

// OpeningHours describes when the restaurant is open, either as a weekly rule
// (DayOfWeek set, SpecificDate nil) or as an override for one calendar date
// (SpecificDate set). A specific-date row beats the weekly rule for that day.
//
// Day-of-week numbering is ISO-8601: Monday = 1 ... Sunday = 7.
type OpeningHours struct {
	ID           uint       `gorm:"column:id;primaryKey" json:"id"`
	DayOfWeek    int        `gorm:"column:day_of_week" json:"day_of_week"` // 0 when SpecificDate is set
	SpecificDate *time.Time `gorm:"column:specific_date" json:"specific_date,omitempty"`
	OpenTime     string     `gorm:"column:open_time;size:8" json:"open_time"`   // "HH:mm"
	CloseTime    string     `gorm:"column:close_time;size:8" json:"close_time"` // "HH:mm"
	IsClosed     bool       `gorm:"column:is_closed;default:false" json:"is_closed"`
}

// TableName returns the table name for OpeningHours.
func (OpeningHours) TableName() string {
	return "opening_hours"
}

// Validate checks if the rule has valid configuration.
func (h *OpeningHours) Validate() error {
	if h.SpecificDate == nil && (h.DayOfWeek < 1 || h.DayOfWeek > 7) {
		return fmt.Errorf("day of week must be 1-7 (ISO-8601, Monday=1)")
	}
	if !h.IsClosed {
		if _, err := ParseDayTime(h.OpenTime); err != nil {
			return fmt.Errorf("invalid open time %q: %w", h.OpenTime, err)
		}
		if _, err := ParseDayTime(h.CloseTime); err != nil {
			return fmt.Errorf("invalid close time %q: %w", h.CloseTime, err)
		}
	}
	return nil
}

// ISODay returns the ISO-8601 day of week (Monday=1 ... Sunday=7) for t.
func ISODay(t time.Time) int {
	wd := int(t.Weekday()) // Sunday=0
	if wd == 0 {
		return 7
	}
	return wd
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDayTime parses an "HH:mm" string into minutes since midnight.
func ParseDayTime(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatDayTime renders minutes since midnight as "HH:mm".
func FormatDayTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinutesOfDay returns t's minutes since midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Window returns the open and close times of the rule as minutes since
// midnight. Returns ok=false when the rule marks the day closed or the
// stored times do not parse.
func (h *OpeningHours) Window() (open, close int, ok bool) {
	if h.IsClosed {
		return 0, 0, false
	}
	open, err := ParseDayTime(h.OpenTime)
	if err != nil {
		return 0, 0, false
	}
	close, err = ParseDayTime(h.CloseTime)
	if err != nil {
		return 0, 0, false
	}
	return open, close, true
}
