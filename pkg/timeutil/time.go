package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the half-open billing period containing t:
// [first day of t's month, first day of the next month)
func MonthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// LastDayOfMonth returns the number of days in t's month
func LastDayOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}

// DaysOverdue returns the whole days elapsed since due, zero when due is
// in the future
func DaysOverdue(due, now time.Time) int {
	days := int(now.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
