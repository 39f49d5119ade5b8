package services

import (
	"context"
	"time"

	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/storage"
)

// GoalService recomputes goal progress from recorded entries.
type GoalService struct {
	repo   *storage.Repository
	logger *log.Logger
}

func NewGoalService(repo *storage.Repository, logger *log.Logger) *GoalService {
	return &GoalService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// RecomputeProgress refreshes the user's active goals.
//
// Reduction goals track the current calendar month's spend on the linked
// habit, or across all habits when unlinked; they stay active since lower is
// better. Savings goals keep their user-maintained amount and are marked
// completed once it reaches the target.
func (s *GoalService) RecomputeProgress(ctx context.Context, userID string, now time.Time) error {
	goals, err := s.repo.ListActiveGoals(ctx, userID)
	if err != nil {
		return err
	}

	monthStart := core.MonthStart(now)
	for _, g := range goals {
		switch g.Type {
		case core.GoalReduction:
			spent, err := s.repo.SumEntriesSince(ctx, userID, g.HabitID, monthStart)
			if err != nil {
				return err
			}
			if spent.Cents == g.CurrentAmount.Cents {
				continue
			}
			if err := s.repo.SetGoalProgress(ctx, g.ID, spent, core.GoalActive); err != nil {
				return err
			}

		case core.GoalSavings:
			if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
				if err := s.repo.SetGoalProgress(ctx, g.ID, g.CurrentAmount, core.GoalCompleted); err != nil {
					return err
				}
				s.logger.InfoContext(ctx, "Savings goal completed",
					log.FieldUserID, userID,
					log.FieldGoalID, g.ID)
			}
		}
	}
	return nil
}
