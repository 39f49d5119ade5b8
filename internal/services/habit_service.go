package services

import (
	"context"
	"fmt"

	"habitual/internal/core"
	"habitual/internal/storage"
)

// HabitService creates and edits habits under the tier's habit ceiling.
type HabitService struct {
	repo *storage.Repository
}

func NewHabitService(repo *storage.Repository) *HabitService {
	return &HabitService{repo: repo}
}

// Create stores a new habit after checking the tier ceiling against the
// user's non-archived habit count.
func (s *HabitService) Create(ctx context.Context, user core.User, h core.Habit) (core.Habit, error) {
	h.UserID = user.ID
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}

	count, err := s.repo.CountActiveHabits(ctx, user.ID)
	if err != nil {
		return core.Habit{}, err
	}
	limit := core.LimitsFor(user.Tier).MaxHabits
	if !limit.Allows(count) {
		return core.Habit{}, fmt.Errorf("%w: %d habits on the %s tier", ErrQuotaExceeded, count, user.Tier)
	}

	return s.repo.CreateHabit(ctx, h)
}

// Update applies edits to an owned habit. Archiving frees a slot under the
// ceiling; unarchiving re-checks it.
func (s *HabitService) Update(ctx context.Context, user core.User, h core.Habit) (core.Habit, error) {
	h.UserID = user.ID
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}

	existing, err := s.repo.GetHabit(ctx, h.ID, user.ID)
	if err != nil {
		return core.Habit{}, err
	}

	if existing.IsArchived && !h.IsArchived {
		count, err := s.repo.CountActiveHabits(ctx, user.ID)
		if err != nil {
			return core.Habit{}, err
		}
		limit := core.LimitsFor(user.Tier).MaxHabits
		if !limit.Allows(count) {
			return core.Habit{}, fmt.Errorf("%w: %d habits on the %s tier", ErrQuotaExceeded, count, user.Tier)
		}
	}

	if err := s.repo.UpdateHabit(ctx, h); err != nil {
		return core.Habit{}, err
	}
	return s.repo.GetHabit(ctx, h.ID, user.ID)
}
