package permission

import (
	"fmt"
	"time"
)

// DayKey returns the calendar-day usage counter key for a permission.
// Format: <permission_id>|YYYY-MM-DD in UTC.
func DayKey(permissionID string, t time.Time) string {
	return permissionID + "|" + t.UTC().Format("2006-01-02")
}

// WeekKey returns the week-of-year usage counter key for a permission.
// Format: <permission_id>|YYYY-Wnn in UTC.
func WeekKey(permissionID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s|%d-W%02d", permissionID, t.Year(), weekOfYear(t))
}

// weekOfYear computes the week number as
// ceil((dayOfYear + jan1Weekday + 1) / 7) with Sunday = 0.
// This is not strictly ISO-8601; the formula is preserved verbatim for
// compatibility with previously stored usage counters.
func weekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	jan1Weekday := int(jan1.Weekday())
	dayOfYear := t.YearDay()
	return (dayOfYear + jan1Weekday + 1 + 6) / 7 // integer ceil
}
