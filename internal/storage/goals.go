package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitual/internal/core"
)

const goalColumns = `id, user_id, habit_id, name, type, target_amount_cents,
	current_amount_cents, start_date, end_date, status, created_at, updated_at`

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.ID == "" {
		g.ID = newID()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Status == "" {
		g.Status = core.GoalActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, habit_id, name, type, target_amount_cents,
			current_amount_cents, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, nullString(g.HabitID), g.Name, string(g.Type),
		g.TargetAmount.Cents, g.CurrentAmount.Cents, g.StartDate,
		nullTime(g.EndDate), string(g.Status), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, id, userID string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

// ListGoals returns the user's goals, skipping cancelled ones.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return r.listGoals(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND status != ? ORDER BY created_at`,
		userID, string(core.GoalCancelled))
}

// ListActiveGoals returns goals eligible for progress recomputation.
func (r *Repository) ListActiveGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return r.listGoals(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND status = ? ORDER BY created_at`,
		userID, string(core.GoalActive))
}

func (r *Repository) listGoals(ctx context.Context, query string, args ...any) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, target_amount_cents = ?, current_amount_cents = ?,
			end_date = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		nullTime(g.EndDate), string(g.Status), time.Now().UTC(), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

// SetGoalProgress updates only the computed progress fields, used by the worker.
func (r *Repository) SetGoalProgress(ctx context.Context, id string, current core.Money, status core.GoalStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET current_amount_cents = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		current.Cents, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set goal progress: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteGoal(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g               core.Goal
		habitID         sql.NullString
		goalType        string
		status          string
		target, current int64
		endDate         sql.NullTime
	)
	err := row.Scan(&g.ID, &g.UserID, &habitID, &g.Name, &goalType, &target,
		&current, &g.StartDate, &endDate, &status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}

	g.Type, err = core.ParseGoalType(goalType)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	g.Status, err = core.ParseGoalStatus(status)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	g.HabitID = habitID.String
	g.TargetAmount = core.Money{Cents: target}
	g.CurrentAmount = core.Money{Cents: current}
	g.EndDate = endDate.Time
	return g, nil
}
