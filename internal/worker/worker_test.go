package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"habitual/internal/amqp"
	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/services"
	"habitual/internal/storage"
)

func newTestWorker(t *testing.T) (*Worker, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	goals := services.NewGoalService(repo, logger)
	return New(repo, goals, time.Hour, logger), repo
}

func TestHandleEntryCreated(t *testing.T) {
	w, repo := newTestWorker(t)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, core.User{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	habit, err := repo.CreateHabit(ctx, core.Habit{
		UserID:   user.ID,
		Name:     "Coffee",
		Category: core.CategoryCoffee,
	})
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}

	now := time.Now().UTC()
	entry, err := repo.CreateEntry(ctx, core.Entry{
		HabitID: habit.ID,
		UserID:  user.ID,
		Amount:  core.Money{Cents: 450},
		Date:    now,
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	goal, err := repo.CreateGoal(ctx, core.Goal{
		UserID:       user.ID,
		HabitID:      habit.ID,
		Name:         "Less coffee",
		Type:         core.GoalReduction,
		TargetAmount: core.Money{Cents: 10000},
		StartDate:    now.AddDate(0, 0, -7),
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	msg := &amqp.EntryCreatedMessage{
		UserID:    user.ID,
		EntryID:   entry.ID,
		HabitID:   habit.ID,
		Timestamp: now,
	}
	if err := w.HandleEntryCreated(ctx, msg); err != nil {
		t.Fatalf("HandleEntryCreated: %v", err)
	}

	got, err := repo.GetGoal(ctx, goal.ID, user.ID)
	if err != nil {
		t.Fatalf("GetGoal: %v", err)
	}
	if got.CurrentAmount.Cents != 450 {
		t.Errorf("current amount = %d, want 450", got.CurrentAmount.Cents)
	}
	if got.Status != core.GoalActive {
		t.Errorf("status = %q, want active", got.Status)
	}
}

func TestPruneExpired(t *testing.T) {
	w, repo := newTestWorker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user, err := repo.CreateUser(ctx, core.User{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := repo.CreateSession(ctx, "expired-token", user.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := repo.CreateSession(ctx, "live-token", user.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := repo.CreateInsight(ctx, core.Insight{
		UserID:    user.ID,
		Type:      core.InsightPattern,
		Title:     "Stale",
		Content:   "Long gone",
		ExpiresAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("CreateInsight: %v", err)
	}
	if _, err := repo.CreateInsight(ctx, core.Insight{
		UserID:    user.ID,
		Type:      core.InsightSuggestion,
		Title:     "Fresh",
		Content:   "Still relevant",
		ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateInsight: %v", err)
	}

	if err := w.PruneExpired(ctx, now); err != nil {
		t.Fatalf("PruneExpired: %v", err)
	}

	insights, err := repo.ListInsights(ctx, user.ID, now.Add(-2*time.Hour), 20)
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if len(insights) != 1 || insights[0].Title != "Fresh" {
		t.Errorf("insights after prune = %+v, want only Fresh", insights)
	}

	if _, err := repo.GetSessionUser(ctx, "live-token", now); err != nil {
		t.Errorf("live session pruned: %v", err)
	}
	if _, err := repo.GetSessionUser(ctx, "expired-token", now.Add(-2*time.Hour)); err == nil {
		t.Error("expired session survived prune")
	}
}
