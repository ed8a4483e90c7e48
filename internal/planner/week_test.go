package planner

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("Failed to load location %s: %v", name, err)
	}
	return loc
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func TestWeekRangeProperties(t *testing.T) {
	pacific := mustLoad(t, "America/Los_Angeles")

	// Every day across two years, including both DST transitions and a year boundary.
	day := time.Date(2025, time.January, 1, 12, 0, 0, 0, pacific)
	for i := 0; i < 730; i++ {
		d := day.AddDate(0, 0, i)
		start, end := WeekRange(d)

		if start.Weekday() != time.Monday {
			t.Fatalf("%s: expected start on Monday, got %s", d.Format(time.DateOnly), start.Weekday())
		}
		if civilDate(start).After(civilDate(d)) || civilDate(end).Before(civilDate(d)) {
			t.Fatalf("%s: not within [%s, %s]", d.Format(time.DateOnly), start.Format(time.DateOnly), end.Format(time.DateOnly))
		}
		if span := civilDate(end).Sub(civilDate(start)); span != 6*24*time.Hour {
			t.Fatalf("%s: expected a 6 day span, got %s", d.Format(time.DateOnly), span)
		}
	}
}

func TestWeekKey(t *testing.T) {
	pacific := mustLoad(t, "America/Los_Angeles")

	tests := []struct {
		name string
		day  time.Time
		want string
	}{
		{"Wednesday", time.Date(2026, time.October, 14, 12, 0, 0, 0, pacific), "October 12, 2026 - October 18, 2026"},
		{"Monday", time.Date(2026, time.October, 12, 0, 0, 0, 0, pacific), "October 12, 2026 - October 18, 2026"},
		{"Sunday", time.Date(2026, time.October, 18, 23, 59, 0, 0, pacific), "October 12, 2026 - October 18, 2026"},
		{"AcrossYearBoundary", time.Date(2026, time.January, 1, 12, 0, 0, 0, pacific), "December 29, 2025 - January 04, 2026"},
		{"DSTStartSunday", time.Date(2026, time.March, 8, 12, 0, 0, 0, pacific), "March 02, 2026 - March 08, 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekKey(tt.day); got != tt.want {
				t.Errorf("Expected key '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestFormatDay(t *testing.T) {
	day := time.Date(2026, time.October, 5, 9, 0, 0, 0, time.UTC)
	weekday, date := FormatDay(day)
	if weekday != "Monday" {
		t.Errorf("Expected weekday 'Monday', got '%s'", weekday)
	}
	if date != "October 05, 2026" {
		t.Errorf("Expected zero-padded date 'October 05, 2026', got '%s'", date)
	}
}

func TestZoneClock(t *testing.T) {
	clock, err := NewZoneClock("America/Los_Angeles")
	if err != nil {
		t.Fatalf("NewZoneClock failed: %v", err)
	}
	if got := clock.Now().Location().String(); got != "America/Los_Angeles" {
		t.Errorf("Expected time in America/Los_Angeles, got %s", got)
	}

	if _, err := NewZoneClock("Nowhere/Special"); err == nil {
		t.Error("Expected an error for unknown zone")
	}
}
