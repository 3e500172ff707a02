package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-03-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeExpirationLayout(t *testing.T) {
	got, ok := ParseTime("2026-03-20")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 20 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	exp := now.AddDate(0, 0, 5)
	if d := DaysUntil(now, exp); d != 5 {
		t.Fatalf("expected 5 days, got %d", d)
	}
	if d := DaysUntil(now, now.AddDate(0, 0, -2)); d != 0 {
		t.Fatalf("expired date should be 0, got %d", d)
	}
}

func TestDaysUntilCountsCalendarDays(t *testing.T) {
	// expirations parse as date-only midnight, so a mid-day clock must not
	// shave a day off the count
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	exp, ok := ParseTime("2026-03-15")
	if !ok {
		t.Fatalf("parse failed")
	}
	if d := DaysUntil(now, exp); d != 5 {
		t.Fatalf("expected 5 days, got %d", d)
	}

	exp, ok = ParseTime("2026-03-18")
	if !ok {
		t.Fatalf("parse failed")
	}
	if d := DaysUntil(now, exp); d != 8 {
		t.Fatalf("expected 8 days, got %d", d)
	}

	// same calendar day counts as zero, late into the evening too
	lateNow := time.Date(2026, 3, 15, 23, 50, 0, 0, time.UTC)
	if d := DaysUntil(lateNow, exp.AddDate(0, 0, -3)); d != 0 {
		t.Fatalf("same-day expiration should be 0, got %d", d)
	}
}

func TestSplitSymbols(t *testing.T) {
	got := SplitSymbols(" tsla, aapl ,,NVDA")
	want := []string{"TSLA", "AAPL", "NVDA"}
	if len(got) != len(want) {
		t.Fatalf("unexpected length %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
}
