package common

import (
	"fmt"
	"time"
)

// ISO8601Date is the calendar-date layout used by the imagery API, file names
// and frame labels.
const ISO8601Date = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date string is empty")
	}
	t, err := time.ParseInLocation(ISO8601Date, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseDateOr parses s, returning def when s is empty.
func ParseDateOr(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return ParseDate(s)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(ISO8601Date)
}

// Today returns the current UTC calendar day.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
