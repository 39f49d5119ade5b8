package http

import (
	"time"

	"habitual/internal/core"
)

// View types are the JSON shapes of the API. Monetary amounts travel as
// two-decimal strings so they round-trip exactly.

type userView struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Image              string     `json:"image,omitempty"`
	HourlyWage         string     `json:"hourlyWage,omitempty"`
	Currency           string     `json:"currency"`
	Tier               string     `json:"tier"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt,omitempty"`
	EntriesThisMonth   int        `json:"entriesThisMonth"`
	AIInsightsUsed     int        `json:"aiInsightsUsed"`
	ShareProgress      bool       `json:"shareProgress"`
	ShareAmounts       bool       `json:"shareAmounts"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func toUserView(u core.User) userView {
	v := userView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Image:            u.Image,
		Currency:         u.Currency,
		Tier:             string(u.Tier),
		EntriesThisMonth: u.EntriesThisMonth,
		AIInsightsUsed:   u.AIInsightsUsed,
		ShareProgress:    u.ShareProgress,
		ShareAmounts:     u.ShareAmounts,
		CreatedAt:        u.CreatedAt,
	}
	if !u.HourlyWage.IsZero() {
		v.HourlyWage = u.HourlyWage.String()
	}
	if !u.SubscriptionEndsAt.IsZero() {
		t := u.SubscriptionEndsAt
		v.SubscriptionEndsAt = &t
	}
	return v
}

type habitView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	DefaultAmount string    `json:"defaultAmount,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	Color         string    `json:"color"`
	IsArchived    bool      `json:"isArchived"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toHabitView(h core.Habit) habitView {
	v := habitView{
		ID:         h.ID,
		Name:       h.Name,
		Category:   string(h.Category),
		Icon:       h.Icon,
		Color:      h.Color,
		IsArchived: h.IsArchived,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
	}
	if !h.DefaultAmount.IsZero() {
		v.DefaultAmount = h.DefaultAmount.String()
	}
	return v
}

func toHabitViews(habits []core.Habit) []habitView {
	views := make([]habitView, 0, len(habits))
	for _, h := range habits {
		views = append(views, toHabitView(h))
	}
	return views
}

type entryView struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	Amount    string    `json:"amount"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toEntryView(e core.Entry) entryView {
	return entryView{
		ID:        e.ID,
		HabitID:   e.HabitID,
		Amount:    e.Amount.String(),
		Date:      e.Date,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}
}

func toEntryViews(entries []core.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toEntryView(e))
	}
	return views
}

type goalView struct {
	ID            string     `json:"id"`
	HabitID       string     `json:"habitId,omitempty"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	TargetAmount  string     `json:"targetAmount"`
	CurrentAmount string     `json:"currentAmount"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toGoalView(g core.Goal) goalView {
	v := goalView{
		ID:            g.ID,
		HabitID:       g.HabitID,
		Name:          g.Name,
		Type:          string(g.Type),
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		StartDate:     g.StartDate,
		Status:        string(g.Status),
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
	if !g.EndDate.IsZero() {
		t := g.EndDate
		v.EndDate = &t
	}
	return v
}

func toGoalViews(goals []core.Goal) []goalView {
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, toGoalView(g))
	}
	return views
}

type friendProfileView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type friendshipView struct {
	ID          string             `json:"id"`
	RequesterID string             `json:"requesterId"`
	AddresseeID string             `json:"addresseeId"`
	Status      string             `json:"status"`
	Friend      *friendProfileView `json:"friend,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func toFriendshipView(f core.Friendship, friend *core.User) friendshipView {
	v := friendshipView{
		ID:          f.ID,
		RequesterID: f.RequesterID,
		AddresseeID: f.AddresseeID,
		Status:      string(f.Status),
		CreatedAt:   f.CreatedAt,
	}
	if friend != nil {
		v.Friend = &friendProfileView{
			ID:    friend.ID,
			Name:  friend.Name,
			Image: friend.Image,
		}
	}
	return v
}

type insightView struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsHelpful *bool     `json:"isHelpful,omitempty"`
	IsRead    bool      `json:"isRead"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func toInsightView(in core.Insight) insightView {
	return insightView{
		ID:        in.ID,
		HabitID:   in.HabitID,
		Type:      string(in.Type),
		Title:     in.Title,
		Content:   in.Content,
		IsHelpful: in.IsHelpful,
		IsRead:    in.IsRead,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: in.CreatedAt,
	}
}

func toInsightViews(insights []core.Insight) []insightView {
	views := make([]insightView, 0, len(insights))
	for _, in := range insights {
		views = append(views, toInsightView(in))
	}
	return views
}
