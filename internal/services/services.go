// Package services holds the application rules sitting between the HTTP
// handlers, the worker and storage: quota enforcement, ownership checks,
// event publishing and goal progress.
package services

import (
	"context"
	"errors"
	"time"

	"habitual/internal/core"
)

var (
	// ErrQuotaExceeded signals that the user's tier limit blocks the action.
	ErrQuotaExceeded = errors.New("tier limit reached")

	// ErrNoSpendingData signals that insight generation has nothing to analyze.
	ErrNoSpendingData = errors.New("no spending data")
)

// EventPublisher publishes entry events to the broker.
type EventPublisher interface {
	PublishEntryCreated(ctx context.Context, userID, entryID, habitID string) error
}

// DashboardInvalidator drops a user's cached dashboard after writes.
type DashboardInvalidator interface {
	Delete(key string)
}

// resetDue reports whether a monthly counter's calendar month has rolled over.
func resetDue(resetAt, now time.Time) bool {
	return core.MonthStart(now).After(core.MonthStart(resetAt))
}
