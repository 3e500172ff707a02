package util

import (
	"strconv"
	"time"
)

// ExpirationLayout is the wire format for option expiration dates.
const ExpirationLayout = "2006-01-02"

// ParseTime tries RFC3339, the expiration layout, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(ExpirationLayout, s); err == nil {
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

// DaysUntil returns whole calendar days from now until date, never negative.
// Both endpoints are truncated to their own calendar date first, so a
// contract expiring in five calendar days reads as five regardless of the
// time of day.
func DaysUntil(now, date time.Time) int {
	d := int(midnightUTC(date).Sub(midnightUTC(now)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// midnightUTC pins t's calendar date to UTC midnight, making the difference
// between two pinned dates an exact multiple of 24h.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
