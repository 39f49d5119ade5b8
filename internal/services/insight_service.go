package services

import (
	"context"
	"fmt"
	"time"

	"habitual/internal/ai"
	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/storage"
)

// InsightGenerator produces insights from a spending summary.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, summaries []ai.HabitSpending) ([]ai.GeneratedInsight, error)
}

// InsightService drives AI insight generation under the monthly quota.
type InsightService struct {
	repo      *storage.Repository
	generator InsightGenerator
	logger    *log.Logger
}

func NewInsightService(repo *storage.Repository, generator InsightGenerator, logger *log.Logger) *InsightService {
	return &InsightService{
		repo:      repo,
		generator: generator,
		logger:    logger.WithComponent(log.ComponentAI),
	}
}

// Generate gathers the user's last 30 days of spending, calls the model and
// stores the parsed insights with a 7-day expiry.
func (s *InsightService) Generate(ctx context.Context, user core.User, now time.Time) ([]core.Insight, error) {
	used := user.AIInsightsUsed
	resetAt := user.AIInsightsResetAt
	if resetDue(resetAt, now) {
		used = 0
		resetAt = now
	}
	limit := core.LimitsFor(user.Tier).MaxAIInsightsPerMonth
	if !limit.Allows(used) {
		return nil, fmt.Errorf("%w: %d insights this month on the %s tier", ErrQuotaExceeded, used, user.Tier)
	}

	summaries, err := s.spendingSummary(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.GenerateInsights(ctx, summaries)
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}

	if err := s.repo.SetInsightUsage(ctx, user.ID, used+1, resetAt); err != nil {
		return nil, fmt.Errorf("update insight usage: %w", err)
	}

	expiresAt := now.Add(ai.InsightExpiry)
	var stored []core.Insight
	for _, g := range generated {
		in, err := s.repo.CreateInsight(ctx, core.Insight{
			UserID:    user.ID,
			Type:      g.Type,
			Title:     g.Title,
			Content:   g.Content,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return nil, fmt.Errorf("store insight: %w", err)
		}
		stored = append(stored, in)
	}

	s.logger.InfoContext(ctx, "Generated insights",
		log.FieldUserID, user.ID,
		"count", len(stored))
	return stored, nil
}

// spendingSummary folds the last 30 days of entries per active habit.
// ErrNoSpendingData when there is nothing to analyze.
func (s *InsightService) spendingSummary(ctx context.Context, userID string, now time.Time) ([]ai.HabitSpending, error) {
	habits, err := s.repo.ListHabits(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	since := now.AddDate(0, 0, -30)
	entriesByHabit := make(map[string][]core.Entry)
	total := 0
	for _, h := range habits {
		entries, err := s.repo.ListEntries(ctx, userID, storage.EntryFilter{HabitID: h.ID, Since: since})
		if err != nil {
			return nil, err
		}
		entriesByHabit[h.ID] = entries
		total += len(entries)
	}
	if total == 0 {
		return nil, ErrNoSpendingData
	}

	return ai.SummarizeSpending(habits, entriesByHabit), nil
}
