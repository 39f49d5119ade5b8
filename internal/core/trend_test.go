package core

import "testing"

func TestTrendOf(t *testing.T) {
	cases := []struct {
		current, previous int64
		value             int
		direction         TrendDirection
	}{
		{0, 0, 0, TrendNeutral},
		{100, 0, 100, TrendUp},
		{50, 100, 50, TrendDown},
		{100, 100, 0, TrendNeutral},
		{150, 100, 50, TrendUp},
		{300, 100, 200, TrendUp},
		{1, 3, 67, TrendDown}, // -66.67% rounds to 67
	}
	for _, tc := range cases {
		got := TrendOf(Money{Cents: tc.current}, Money{Cents: tc.previous})
		if got.Value != tc.value || got.Direction != tc.direction {
			t.Fatalf("TrendOf(%d, %d) = %+v, want {%d %s}",
				tc.current, tc.previous, got, tc.value, tc.direction)
		}
	}
}

func TestTrendValueNonNegative(t *testing.T) {
	got := TrendOf(Money{Cents: 10}, Money{Cents: 1000})
	if got.Value < 0 {
		t.Fatalf("trend value must be non-negative, got %d", got.Value)
	}
}
