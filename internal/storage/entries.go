package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitual/internal/core"
)

const entryColumns = `id, habit_id, user_id, amount_cents, date, notes, created_at`

func (r *Repository) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habit_entries (id, habit_id, user_id, amount_cents, date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.HabitID, e.UserID, e.Amount.Cents, e.Date, e.Notes, e.CreatedAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return e, nil
}

func (r *Repository) GetEntry(ctx context.Context, id, userID string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM habit_entries WHERE id = ? AND user_id = ?`, id, userID)
	return scanEntry(row)
}

// EntryFilter narrows ListEntries. Zero values mean no constraint.
type EntryFilter struct {
	HabitID string
	Since   time.Time
	Limit   int
}

func (r *Repository) ListEntries(ctx context.Context, userID string, f EntryFilter) ([]core.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM habit_entries WHERE user_id = ?`
	args := []any{userID}
	if f.HabitID != "" {
		query += ` AND habit_id = ?`
		args = append(args, f.HabitID)
	}
	if !f.Since.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.Since)
	}
	query += ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumEntriesSince totals entry amounts for goal progress. Empty habitID sums
// across all of the user's habits.
func (r *Repository) SumEntriesSince(ctx context.Context, userID, habitID string, since time.Time) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM habit_entries WHERE user_id = ? AND date >= ?`
	args := []any{userID, since}
	if habitID != "" {
		query += ` AND habit_id = ?`
		args = append(args, habitID)
	}

	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum entries: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) CountEntries(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habit_entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM habit_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res)
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e     core.Entry
		cents int64
	)
	err := row.Scan(&e.ID, &e.HabitID, &e.UserID, &cents, &e.Date, &e.Notes, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Amount = core.Money{Cents: cents}
	return e, nil
}
