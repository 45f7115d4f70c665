package permission

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	// 23:30 UTC-5 is already the next day in UTC
	loc := time.FixedZone("EST", -5*3600)
	at := time.Date(2025, time.March, 10, 23, 30, 0, 0, loc)
	if got, want := DayKey("perm-1", at), "perm-1|2025-03-11"; got != want {
		t.Errorf("DayKey = %q, want %q", got, want)
	}
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		// Jan 1 2025 is a Wednesday (weekday 3): (1+3+1+6)/7 = 1
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "perm-1|2025-W01"},
		// Jan 5 2025: (5+3+1+6)/7 = 2
		{time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), "perm-1|2025-W02"},
		// Dec 31 2025: (365+3+1+6)/7 = 53
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "perm-1|2025-W53"},
		// Jan 1 2023 is a Sunday (weekday 0): (1+0+1+6)/7 = 1
		{time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), "perm-1|2023-W01"},
	}
	for _, tt := range tests {
		if got := WeekKey("perm-1", tt.at); got != tt.want {
			t.Errorf("WeekKey(%s) = %q, want %q", tt.at.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestWeekKeyRollsOverWithinMonth(t *testing.T) {
	a := WeekKey("perm-1", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
	b := WeekKey("perm-1", time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC))
	if a == b {
		t.Errorf("dates one week apart should map to different keys, both %q", a)
	}
}
