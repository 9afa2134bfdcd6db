package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DayString renders the UTC calendar day used to key daily quota windows.
func DayString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
