package core

import "testing"

func TestTimeCost(t *testing.T) {
	cases := []struct {
		amount, wage int64
		hours        float64
	}{
		{10000, 2500, 4},   // $100 at $25/h
		{10000, 0, 0},      // no wage configured
		{10000, -500, 0},   // negative wage guarded
		{1250, 2500, 0.5},  // half an hour
		{2500, 10000, 0.25},
	}
	for _, tc := range cases {
		got := TimeCost(Money{Cents: tc.amount}, Money{Cents: tc.wage})
		if got != tc.hours {
			t.Fatalf("TimeCost(%d, %d) = %v, want %v", tc.amount, tc.wage, got, tc.hours)
		}
	}
}

func TestFormatTimeCost(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0.001, "less than a minute"},
		{0.008, "less than a minute"}, // 0.48 min rounds down
		{0.0166, "1 minute"},          // 0.996 min rounds up
		{0.5, "30 minutes"},
		{0.992, "1 hour"}, // 59.52 min rounds up past the minute tier
		{1.0, "1 hour"},
		{1.5, "1h 30m"},
		{2.0, "2 hours"},
		{3.25, "3h 15m"},
		{24, "1 day"},
		{25, "1d 1h"},
		{49.5, "2d 2h"}, // 1.5h remainder rounds to 2
	}
	for _, tc := range cases {
		if got := FormatTimeCost(tc.hours); got != tc.want {
			t.Fatalf("FormatTimeCost(%v) = %q, want %q", tc.hours, got, tc.want)
		}
	}
}
