package services

import (
	"context"
	"fmt"
	"time"

	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/storage"
)

// EntryService records spending entries, enforcing the monthly quota and
// habit ownership, and fans out the entry.created event.
type EntryService struct {
	repo      *storage.Repository
	publisher EventPublisher
	cache     DashboardInvalidator
	logger    *log.Logger
}

func NewEntryService(repo *storage.Repository, publisher EventPublisher, cache DashboardInvalidator, logger *log.Logger) *EntryService {
	return &EntryService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

// Create validates and stores a new entry for the user. The monthly entry
// counter resets when the calendar month has rolled over since the last reset.
func (s *EntryService) Create(ctx context.Context, user core.User, e core.Entry, now time.Time) (core.Entry, error) {
	e.UserID = user.ID
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	// Ownership: the habit must exist and belong to the user.
	if _, err := s.repo.GetHabit(ctx, e.HabitID, user.ID); err != nil {
		return core.Entry{}, err
	}

	used := user.EntriesThisMonth
	resetAt := user.EntriesResetAt
	if resetDue(resetAt, now) {
		used = 0
		resetAt = now
	}
	limit := core.LimitsFor(user.Tier).MaxEntriesPerMonth
	if !limit.Allows(used) {
		return core.Entry{}, fmt.Errorf("%w: %d entries this month on the %s tier", ErrQuotaExceeded, used, user.Tier)
	}

	created, err := s.repo.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, err
	}
	if err := s.repo.SetEntryUsage(ctx, user.ID, used+1, resetAt); err != nil {
		return core.Entry{}, fmt.Errorf("update entry usage: %w", err)
	}

	// Publishing is best effort: the entry is already durable.
	if s.publisher != nil {
		if err := s.publisher.PublishEntryCreated(ctx, user.ID, created.ID, created.HabitID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish entry created event",
				log.FieldError, err,
				log.FieldUserID, user.ID,
				log.FieldEntryID, created.ID)
		}
	}

	s.invalidate(user.ID)
	return created, nil
}

// Delete removes an entry owned by the user and drops the cached dashboard.
func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	if err := s.repo.DeleteEntry(ctx, entryID, userID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *EntryService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}
