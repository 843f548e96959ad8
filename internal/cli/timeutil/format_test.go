package timeutil

import (
	"testing"
	"time"
)

func TestFormatTime_Zero(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "-" {
		t.Errorf("FormatTime(zero) = %q, want -", got)
	}
}

func TestFormatOptional(t *testing.T) {
	if got := FormatOptional(nil); got != "-" {
		t.Errorf("FormatOptional(nil) = %q, want -", got)
	}

	at := time.Date(2026, 8, 26, 19, 30, 0, 0, time.Local)
	want := at.Format(LocalTimeFormat)
	if got := FormatOptional(&at); got != want {
		t.Errorf("FormatOptional = %q, want %q", got, want)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{26 * time.Hour, "1d 2h"},
		{-90 * time.Second, "1m 30s"},
	}

	for _, tc := range tests {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
