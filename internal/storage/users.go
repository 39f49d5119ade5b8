package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitual/internal/core"
)

const userColumns = `id, name, email, image, hourly_wage_cents, currency,
	subscription_tier, stripe_customer_id, stripe_subscription_id,
	subscription_ends_at, ai_insights_used, ai_insights_reset_at,
	entries_this_month, entries_reset_at, privacy_share_progress,
	privacy_share_amounts, created_at, updated_at`

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = newID()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Tier == "" {
		u.Tier = core.TierFree
	}
	if u.Currency == "" {
		u.Currency = "USD"
	}
	u.AIInsightsResetAt = now
	u.EntriesResetAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, image, hourly_wage_cents, currency,
			subscription_tier, ai_insights_reset_at, entries_reset_at,
			privacy_share_progress, privacy_share_amounts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Image, nullCents(u.HourlyWage), u.Currency,
		string(u.Tier), u.AIInsightsResetAt, u.EntriesResetAt,
		u.ShareProgress, u.ShareAmounts, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *Repository) GetUserByStripeCustomer(ctx context.Context, customerID string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE stripe_customer_id = ?`, customerID)
	return scanUser(row)
}

// UpdateProfile updates the user-editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, image = ?, hourly_wage_cents = ?, currency = ?,
			privacy_share_progress = ?, privacy_share_amounts = ?,
			updated_at = ?
		WHERE id = ?`,
		u.Name, u.Image, nullCents(u.HourlyWage), u.Currency,
		u.ShareProgress, u.ShareAmounts, time.Now().UTC(), u.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// UpdateSubscription sets tier and Stripe linkage after billing events.
func (r *Repository) UpdateSubscription(ctx context.Context, userID string, tier core.Tier, customerID, subscriptionID string, endsAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET subscription_tier = ?, stripe_customer_id = ?,
			stripe_subscription_id = ?, subscription_ends_at = ?, updated_at = ?
		WHERE id = ?`,
		string(tier), nullString(customerID), nullString(subscriptionID),
		nullTime(endsAt), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

// SetStripeCustomer links the user to a Stripe customer without touching the
// tier, used when the customer is created at checkout time.
func (r *Repository) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET stripe_customer_id = ?, updated_at = ?
		WHERE id = ?`,
		nullString(customerID), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set stripe customer: %w", err)
	}
	return requireRow(res)
}

// SetEntryUsage overwrites the monthly entry counter and its reset marker.
func (r *Repository) SetEntryUsage(ctx context.Context, userID string, used int, resetAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET entries_this_month = ?, entries_reset_at = ?, updated_at = ?
		WHERE id = ?`,
		used, resetAt, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set entry usage: %w", err)
	}
	return requireRow(res)
}

// SetInsightUsage overwrites the monthly insight counter and its reset marker.
func (r *Repository) SetInsightUsage(ctx context.Context, userID string, used int, resetAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET ai_insights_used = ?, ai_insights_reset_at = ?, updated_at = ?
		WHERE id = ?`,
		used, resetAt, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set insight usage: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u              core.User
		tier           string
		wage           sql.NullInt64
		custID, subID  sql.NullString
		subEndsAt      sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &wage, &u.Currency,
		&tier, &custID, &subID, &subEndsAt,
		&u.AIInsightsUsed, &u.AIInsightsResetAt,
		&u.EntriesThisMonth, &u.EntriesResetAt,
		&u.ShareProgress, &u.ShareAmounts, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}

	u.Tier, err = core.ParseTier(tier)
	if err != nil {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.HourlyWage = core.Money{Cents: wage.Int64}
	u.StripeCustomerID = custID.String
	u.StripeSubscriptionID = subID.String
	u.SubscriptionEndsAt = subEndsAt.Time
	return u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
