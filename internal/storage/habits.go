package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitual/internal/core"
)

const habitColumns = `id, user_id, name, category, default_amount_cents,
	icon, color, is_archived, created_at, updated_at`

func (r *Repository) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	if h.ID == "" {
		h.ID = newID()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now
	if h.Color == "" {
		h.Color = core.CategoryColors[h.Category]
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, name, category, default_amount_cents,
			icon, color, is_archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Name, string(h.Category), nullCents(h.DefaultAmount),
		h.Icon, h.Color, h.IsArchived, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return core.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

// GetHabit fetches a habit scoped to its owner.
func (r *Repository) GetHabit(ctx context.Context, id, userID string) (core.Habit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	return scanHabit(row)
}

func (r *Repository) ListHabits(ctx context.Context, userID string, includeArchived bool) ([]core.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []core.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// CountActiveHabits counts non-archived habits for tier ceiling checks.
func (r *Repository) CountActiveHabits(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habits WHERE user_id = ? AND is_archived = 0`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}

func (r *Repository) UpdateHabit(ctx context.Context, h core.Habit) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE habits
		SET name = ?, category = ?, default_amount_cents = ?, icon = ?,
			color = ?, is_archived = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		h.Name, string(h.Category), nullCents(h.DefaultAmount), h.Icon,
		h.Color, h.IsArchived, time.Now().UTC(), h.ID, h.UserID)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteHabit(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return requireRow(res)
}

func scanHabit(row rowScanner) (core.Habit, error) {
	var (
		h        core.Habit
		category string
		amount   sql.NullInt64
	)
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &category, &amount,
		&h.Icon, &h.Color, &h.IsArchived, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Habit{}, ErrNotFound
	}
	if err != nil {
		return core.Habit{}, fmt.Errorf("scan habit: %w", err)
	}

	h.Category, err = core.ParseCategory(category)
	if err != nil {
		return core.Habit{}, fmt.Errorf("habit %s: %w", h.ID, err)
	}
	h.DefaultAmount = core.Money{Cents: amount.Int64}
	return h, nil
}
