// Package timefmt is the single formatting boundary for attendance
// timestamps. Everything below the HTTP and export layers works with
// time.Time values; only responses and artifacts carry formatted strings.
package timefmt

import "time"

// Clock renders a time of day on a 12-hour clock, e.g. "08:00 AM".
func Clock(t time.Time) string {
	return t.Format("03:04 PM")
}

// ClockOrNA renders an optional time of day, "N/A" when absent.
func ClockOrNA(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return Clock(*t)
}

// Date renders a calendar date as YYYY-MM-DD.
func Date(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD query parameter.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
