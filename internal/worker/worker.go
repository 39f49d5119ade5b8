package worker

import (
	"context"
	"fmt"
	"time"

	"habitual/internal/amqp"
	"habitual/internal/log"
	"habitual/internal/services"
	"habitual/internal/storage"
)

// Worker reacts to entry.created events by refreshing goal progress, and
// periodically prunes expired insights and sessions as a catch-up.
type Worker struct {
	repo          *storage.Repository
	goals         *services.GoalService
	pruneInterval time.Duration
	logger        *log.Logger
}

func New(repo *storage.Repository, goals *services.GoalService, pruneInterval time.Duration, logger *log.Logger) *Worker {
	return &Worker{
		repo:          repo,
		goals:         goals,
		pruneInterval: pruneInterval,
		logger:        logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEntryCreated processes a single entry.created event.
func (w *Worker) HandleEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	w.logger.InfoContext(ctx, "Processing entry created event",
		log.FieldOperation, log.OpConsume,
		log.FieldUserID, msg.UserID,
		log.FieldEntryID, msg.EntryID)

	if err := w.goals.RecomputeProgress(ctx, msg.UserID, time.Now().UTC()); err != nil {
		return fmt.Errorf("recompute goal progress: %w", err)
	}
	return nil
}

// RunPruneLoop prunes expired insights and sessions on a ticker until the
// context is cancelled. One pass runs at startup to recover from downtime.
func (w *Worker) RunPruneLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.pruneInterval)
	defer ticker.Stop()

	if err := w.PruneExpired(ctx, time.Now().UTC()); err != nil {
		w.logger.WarnContext(ctx, "Startup prune failed",
			log.FieldOperation, log.OpStartup,
			log.FieldError, err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Stopping prune loop",
				log.FieldOperation, log.OpShutdown)
			return ctx.Err()
		case <-ticker.C:
			if err := w.PruneExpired(ctx, time.Now().UTC()); err != nil {
				w.logger.WarnContext(ctx, "Periodic prune failed",
					log.FieldOperation, log.OpPrune,
					log.FieldError, err.Error())
			}
		}
	}
}

// PruneExpired removes insights and sessions whose expiry has passed.
func (w *Worker) PruneExpired(ctx context.Context, now time.Time) error {
	insights, err := w.repo.DeleteExpiredInsights(ctx, now)
	if err != nil {
		return fmt.Errorf("prune insights: %w", err)
	}

	sessions, err := w.repo.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}

	if insights > 0 || sessions > 0 {
		w.logger.InfoContext(ctx, "Pruned expired rows",
			log.FieldOperation, log.OpPrune,
			"insights", insights,
			"sessions", sessions)
	}
	return nil
}
