package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitual/internal/core"
)

const insightColumns = `id, user_id, habit_id, type, title, content,
	is_helpful, is_read, expires_at, created_at`

func (r *Repository) CreateInsight(ctx context.Context, in core.Insight) (core.Insight, error) {
	if in.ID == "" {
		in.ID = newID()
	}
	in.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_insights (id, user_id, habit_id, type, title, content,
			is_helpful, is_read, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, nullString(in.HabitID), string(in.Type), in.Title,
		in.Content, nullBool(in.IsHelpful), in.IsRead, nullTime(in.ExpiresAt), in.CreatedAt)
	if err != nil {
		return core.Insight{}, fmt.Errorf("create insight: %w", err)
	}
	return in, nil
}

func (r *Repository) GetInsight(ctx context.Context, id, userID string) (core.Insight, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM ai_insights WHERE id = ? AND user_id = ?`, id, userID)
	return scanInsight(row)
}

// ListInsights returns unexpired insights, newest first.
func (r *Repository) ListInsights(ctx context.Context, userID string, now time.Time, limit int) ([]core.Insight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+insightColumns+` FROM ai_insights
		WHERE user_id = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var insights []core.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// SetInsightFeedback records the thumbs-up/down and marks the insight read.
func (r *Repository) SetInsightFeedback(ctx context.Context, id, userID string, helpful bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ai_insights SET is_helpful = ?, is_read = 1
		WHERE id = ? AND user_id = ?`,
		helpful, id, userID)
	if err != nil {
		return fmt.Errorf("set insight feedback: %w", err)
	}
	return requireRow(res)
}

// DeleteExpiredInsights prunes insights past their expiry.
func (r *Repository) DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM ai_insights WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired insights: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanInsight(row rowScanner) (core.Insight, error) {
	var (
		in          core.Insight
		habitID     sql.NullString
		insightType string
		helpful     sql.NullBool
		expiresAt   sql.NullTime
	)
	err := row.Scan(&in.ID, &in.UserID, &habitID, &insightType, &in.Title,
		&in.Content, &helpful, &in.IsRead, &expiresAt, &in.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Insight{}, ErrNotFound
	}
	if err != nil {
		return core.Insight{}, fmt.Errorf("scan insight: %w", err)
	}

	in.Type, err = core.ParseInsightType(insightType)
	if err != nil {
		return core.Insight{}, fmt.Errorf("insight %s: %w", in.ID, err)
	}
	in.HabitID = habitID.String
	if helpful.Valid {
		v := helpful.Bool
		in.IsHelpful = &v
	}
	in.ExpiresAt = expiresAt.Time
	return in, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
