package planner

import (
	"fmt"
	"time"
)

// DateLayout is the display format used for dates in messages and week keys,
// e.g. "October 05, 2026".
const DateLayout = "January 02, 2006"

// WeekRange returns the Monday on or before t and the Sunday six days after
// it, both at t's wall-clock time in t's location.
func WeekRange(t time.Time) (start, end time.Time) {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	start = t.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// WeekKey formats the week containing t as the document key used for weekly
// meal plans: "<Monday> - <Sunday>".
func WeekKey(t time.Time) string {
	start, end := WeekRange(t)
	return fmt.Sprintf("%s - %s", start.Format(DateLayout), end.Format(DateLayout))
}

// FormatDay returns the weekday name and display date for t.
func FormatDay(t time.Time) (weekday, date string) {
	return t.Weekday().String(), t.Format(DateLayout)
}
