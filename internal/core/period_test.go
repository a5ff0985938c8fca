package core

import (
	"testing"
	"time"
)

func TestDefaultReadingPeriod(t *testing.T) {
	cases := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), "2025-11"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2025-12"}, // crosses the year boundary
		{time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "2025-01"},
		{time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "2025-02"},
		{time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "2025-06"},
	}
	for i, tc := range cases {
		if got := DefaultReadingPeriod(tc.now); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2025, 7, 31, 23, 0, 0, 0, time.UTC)
	if got := CurrentPeriod(now); got != "2025-07" {
		t.Fatalf("got %q, want 2025-07", got)
	}
}

func TestFormatBillingPeriod(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2025-01", "January 2025"},
		{"2024-12", "December 2024"},
		{"2025-13", "2025-13"}, // out of range passes through
		{"garbage", "garbage"},
		{"2025", "2025"},
	}
	for _, tc := range cases {
		if got := FormatBillingPeriod(tc.in); got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatShortPeriod(t *testing.T) {
	if got := FormatShortPeriod("2025-03"); got != "Mar" {
		t.Fatalf("got %q, want Mar", got)
	}
	if got := FormatShortPeriod("nope"); got != "nope" {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{35, "$35.00"},
		{1.999, "$2.00"},
		{110.01, "$110.01"},
		{-12.5, "-$12.50"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Fatalf("%v: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatGallons(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{5000, "5,000"},
		{1234567, "1,234,567"},
		{-4000, "-4,000"},
	}
	for _, tc := range cases {
		if got := FormatGallons(tc.in); got != tc.want {
			t.Fatalf("%v: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2025-01-15"); got != "Jan 15, 2025" {
		t.Fatalf("got %q", got)
	}
	if got := FormatDate("not-a-date"); got != "not-a-date" {
		t.Fatalf("got %q, want passthrough", got)
	}
}
