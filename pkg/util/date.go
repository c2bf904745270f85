package util

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the calendar date format used as store key and in the API.
const DateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, unix nanoseconds and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		// provider timestamps are nanoseconds; anything past year 5138 in seconds is nanos
		if ts > 1e11 {
			return time.Unix(0, ts), true
		}
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate returns the calendar date of t in loc. A nil loc means UTC.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// TradingDate returns the calendar date of t in loc at midnight UTC, the form used for date keys.
func TradingDate(t time.Time, loc *time.Location) time.Time {
	d, _ := time.Parse(DateLayout, FormatDate(t, loc))
	return d
}

// WindowDates lists the calendar dates in [asOf-days, asOf), oldest first.
func WindowDates(asOf time.Time, days int) []string {
	if days <= 0 {
		return nil
	}
	out := make([]string, 0, days)
	for i := days; i >= 1; i-- {
		out = append(out, asOf.AddDate(0, 0, -i).Format(DateLayout))
	}
	return out
}
