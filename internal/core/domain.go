package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

const (
	CategoryCoffee        Category = "coffee"
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategorySubscriptions Category = "subscriptions"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryOther         Category = "other"
)

const (
	GoalSavings   GoalType = "savings"
	GoalReduction GoalType = "reduction"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

const (
	InsightPattern     InsightType = "pattern"
	InsightSuggestion  InsightType = "suggestion"
	InsightPrediction  InsightType = "prediction"
	InsightCelebration InsightType = "celebration"
)

type (
	Tier             string
	Category         string
	GoalType         string
	GoalStatus       string
	FriendshipStatus string
	InsightType      string

	User struct {
		ID                   string
		Name                 string
		Email                string
		Image                string
		HourlyWage           Money
		Currency             string
		Tier                 Tier
		StripeCustomerID     string
		StripeSubscriptionID string
		SubscriptionEndsAt   time.Time
		AIInsightsUsed       int
		AIInsightsResetAt    time.Time
		EntriesThisMonth     int
		EntriesResetAt       time.Time
		ShareProgress        bool
		ShareAmounts         bool
		CreatedAt            time.Time
		UpdatedAt            time.Time
	}

	Habit struct {
		ID            string
		UserID        string
		Name          string
		Category      Category
		DefaultAmount Money // zero means unset
		Icon          string
		Color         string
		IsArchived    bool
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Entry struct {
		ID        string
		HabitID   string
		UserID    string
		Amount    Money
		Date      time.Time
		Notes     string
		CreatedAt time.Time
	}

	Goal struct {
		ID            string
		UserID        string
		HabitID       string // optional link to a habit
		Name          string
		Type          GoalType
		TargetAmount  Money
		CurrentAmount Money
		StartDate     time.Time
		EndDate       time.Time
		Status        GoalStatus
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	Friendship struct {
		ID          string
		RequesterID string
		AddresseeID string
		Status      FriendshipStatus
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Insight struct {
		ID        string
		UserID    string
		HabitID   string
		Type      InsightType
		Title     string
		Content   string
		IsHelpful *bool
		IsRead    bool
		ExpiresAt time.Time
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidTier     = errors.New("invalid subscription tier")
	ErrInvalidCategory = errors.New("invalid habit category")
	ErrEmptyName       = errors.New("empty name")
	ErrNonFiniteRate   = errors.New("non-finite growth rate")
)

// CategoryColors maps each habit category to its fixed display color.
// The table is read-only; the dashboard uses it for the category breakdown.
var CategoryColors = map[Category]string{
	CategoryCoffee:        "#8B4513",
	CategoryFood:          "#FF6B6B",
	CategoryTransport:     "#4ECDC4",
	CategorySubscriptions: "#9B59B6",
	CategoryEntertainment: "#F39C12",
	CategoryShopping:      "#E74C3C",
	CategoryOther:         "#95A5A6",
}

// ParseTier converts a stored tier string into the closed Tier enumeration.
// Unrecognized values are rejected rather than passed through.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.TrimSpace(s)) {
	case TierFree, TierPro, TierPremium:
		return Tier(strings.TrimSpace(s)), nil
	case "":
		return TierFree, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

func ParseCategory(s string) (Category, error) {
	switch Category(strings.TrimSpace(s)) {
	case CategoryCoffee, CategoryFood, CategoryTransport, CategorySubscriptions,
		CategoryEntertainment, CategoryShopping, CategoryOther:
		return Category(strings.TrimSpace(s)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func ParseGoalType(s string) (GoalType, error) {
	switch GoalType(s) {
	case GoalSavings, GoalReduction:
		return GoalType(s), nil
	}
	return "", fmt.Errorf("invalid goal type: %q", s)
}

func ParseGoalStatus(s string) (GoalStatus, error) {
	switch GoalStatus(s) {
	case GoalActive, GoalCompleted, GoalCancelled:
		return GoalStatus(s), nil
	}
	return "", fmt.Errorf("invalid goal status: %q", s)
}

func ParseFriendshipStatus(s string) (FriendshipStatus, error) {
	switch FriendshipStatus(s) {
	case FriendshipPending, FriendshipAccepted, FriendshipBlocked:
		return FriendshipStatus(s), nil
	}
	return "", fmt.Errorf("invalid friendship status: %q", s)
}

func ParseInsightType(s string) (InsightType, error) {
	switch InsightType(s) {
	case InsightPattern, InsightSuggestion, InsightPrediction, InsightCelebration:
		return InsightType(s), nil
	}
	return "", fmt.Errorf("invalid insight type: %q", s)
}

func (h Habit) Validate() error {
	if len(strings.TrimSpace(h.Name)) == 0 {
		return ErrEmptyName
	}
	if len(h.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if _, err := ParseCategory(string(h.Category)); err != nil {
		return err
	}
	if h.DefaultAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if e.HabitID == "" {
		return errors.New("missing habit id")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if len(e.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if _, err := ParseGoalType(string(g.Type)); err != nil {
		return err
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if !g.EndDate.IsZero() && !g.StartDate.IsZero() && g.EndDate.Before(g.StartDate) {
		return errors.New("end date must be after start date")
	}
	return nil
}
