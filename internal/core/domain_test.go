package core

import (
	"testing"
	"time"
)

func TestParseTier(t *testing.T) {
	cases := []struct {
		in   string
		out  Tier
		ok   bool
	}{
		{"free", TierFree, true},
		{"pro", TierPro, true},
		{"premium", TierPremium, true},
		{"", TierFree, true}, // unset column defaults to free
		{"enterprise", "", false},
		{"PRO", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTier(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("ParseTier(%q) = (%q, %v), want %q", tc.in, got, err, tc.out)
			}
		} else if err == nil {
			t.Fatalf("ParseTier(%q) expected error", tc.in)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, valid := range []string{"coffee", "food", "transport", "subscriptions", "entertainment", "shopping", "other"} {
		if _, err := ParseCategory(valid); err != nil {
			t.Fatalf("ParseCategory(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "groceries", "Coffee"} {
		if _, err := ParseCategory(invalid); err == nil {
			t.Fatalf("ParseCategory(%q) expected error", invalid)
		}
	}
}

func TestHabitValidate(t *testing.T) {
	valid := Habit{Name: "Morning latte", Category: CategoryCoffee}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid habit rejected: %v", err)
	}

	if err := (Habit{Name: "  ", Category: CategoryCoffee}).Validate(); err == nil {
		t.Fatal("blank name accepted")
	}
	if err := (Habit{Name: "x", Category: "snacks"}).Validate(); err == nil {
		t.Fatal("unknown category accepted")
	}
}

func TestEntryValidate(t *testing.T) {
	valid := Entry{
		HabitID: "h1",
		Amount:  Money{Cents: 450},
		Date:    time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	if err := (Entry{HabitID: "h1", Amount: Money{Cents: 0}, Date: valid.Date}).Validate(); err == nil {
		t.Fatal("zero amount accepted")
	}
	if err := (Entry{HabitID: "h1", Amount: Money{Cents: 100}}).Validate(); err == nil {
		t.Fatal("zero date accepted")
	}
	if err := (Entry{Amount: Money{Cents: 100}, Date: valid.Date}).Validate(); err == nil {
		t.Fatal("missing habit id accepted")
	}
}

func TestGoalValidate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := Goal{
		Name:         "Skip delivery",
		Type:         GoalReduction,
		TargetAmount: Money{Cents: 10000},
		StartDate:    start,
		EndDate:      start.AddDate(0, 6, 0),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid goal rejected: %v", err)
	}

	inverted := valid
	inverted.EndDate = start.AddDate(0, -1, 0)
	if err := inverted.Validate(); err == nil {
		t.Fatal("end date before start accepted")
	}

	badType := valid
	badType.Type = "wishlist"
	if err := badType.Validate(); err == nil {
		t.Fatal("unknown goal type accepted")
	}
}
