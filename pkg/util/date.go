package util

import (
	"strconv"
	"time"
)

// ISOMillis is the timestamp layout used on the wire (JavaScript toISOString).
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
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
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// ClockLabel renders a wire timestamp as a wall-clock label (15:04:05).
// Unparsable input is returned unchanged.
func ClockLabel(s string, loc *time.Location) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04:05")
}
