package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitual/internal/core"
)

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

func (r *Repository) CreateFriendship(ctx context.Context, f core.Friendship) (core.Friendship, error) {
	if f.ID == "" {
		f.ID = newID()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = core.FriendshipPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.RequesterID, f.AddresseeID, string(f.Status), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return core.Friendship{}, fmt.Errorf("create friendship: %w", err)
	}
	return f, nil
}

// GetFriendship fetches a friendship where the user is on either side.
func (r *Repository) GetFriendship(ctx context.Context, id, userID string) (core.Friendship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+friendshipColumns+` FROM friendships
		WHERE id = ? AND (requester_id = ? OR addressee_id = ?)`,
		id, userID, userID)
	return scanFriendship(row)
}

// FindFriendshipBetween looks up a friendship in either direction.
func (r *Repository) FindFriendshipBetween(ctx context.Context, a, b string) (core.Friendship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+friendshipColumns+` FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?)
		   OR (requester_id = ? AND addressee_id = ?)`,
		a, b, b, a)
	return scanFriendship(row)
}

func (r *Repository) ListFriendships(ctx context.Context, userID string) ([]core.Friendship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+friendshipColumns+` FROM friendships
		WHERE requester_id = ? OR addressee_id = ?
		ORDER BY created_at`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []core.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (r *Repository) UpdateFriendshipStatus(ctx context.Context, id string, status core.FriendshipStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE friendships SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update friendship status: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteFriendship(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM friendships
		WHERE id = ? AND (requester_id = ? OR addressee_id = ?)`,
		id, userID, userID)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return requireRow(res)
}

func scanFriendship(row rowScanner) (core.Friendship, error) {
	var (
		f      core.Friendship
		status string
	)
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &status, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Friendship{}, ErrNotFound
	}
	if err != nil {
		return core.Friendship{}, fmt.Errorf("scan friendship: %w", err)
	}

	f.Status, err = core.ParseFriendshipStatus(status)
	if err != nil {
		return core.Friendship{}, fmt.Errorf("friendship %s: %w", f.ID, err)
	}
	return f, nil
}
