package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"optikcoin/internal/model"
)

// SubscriptionRepository defines methods for accessing subscription data.
type SubscriptionRepository interface {
	// Insert creates the row unless one already exists for the Stripe id.
	Insert(ctx context.Context, sub *model.Subscription) (bool, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	GetLatestForUser(ctx context.Context, userID string) (*model.Subscription, error)
	// ApplyUpdate writes provider state unless a newer event was already applied.
	ApplyUpdate(ctx context.Context, upd model.SubscriptionUpdate) (bool, error)
}

type subscriptionRepo struct {
	db *sql.DB
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, stripe_subscription_id, plan_type, status, current_period_start, current_period_end, cancel_at_period_end, provider_updated_at, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*model.Subscription, error) {
	var s model.Subscription
	var start, end sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StripeSubscriptionID,
		&s.PlanType,
		&s.Status,
		&start,
		&end,
		&s.CancelAtPeriodEnd,
		&s.ProviderUpdatedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		s.CurrentPeriodStart = &start.Time
	}
	if end.Valid {
		s.CurrentPeriodEnd = &end.Time
	}
	return &s, nil
}

func (r *subscriptionRepo) Insert(ctx context.Context, sub *model.Subscription) (bool, error) {
	const q = `
        INSERT INTO subscriptions (user_id, stripe_subscription_id, plan_type, status, current_period_start, current_period_end, cancel_at_period_end, provider_updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (stripe_subscription_id) DO NOTHING
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRowContext(ctx, q,
		sub.UserID,
		sub.StripeSubscriptionID,
		sub.PlanType,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
		sub.ProviderUpdatedAt,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert subscription %s: %w", sub.StripeSubscriptionID, err)
	}
	return true, nil
}

func (r *subscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, stripeSubscriptionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription %s: %w", stripeSubscriptionID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) GetLatestForUser(ctx context.Context, userID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) ApplyUpdate(ctx context.Context, upd model.SubscriptionUpdate) (bool, error) {
	const q = `
        UPDATE subscriptions
        SET status = $2,
            current_period_start = COALESCE($3, current_period_start),
            current_period_end = COALESCE($4, current_period_end),
            cancel_at_period_end = COALESCE($5, cancel_at_period_end),
            provider_updated_at = $6,
            updated_at = NOW()
        WHERE stripe_subscription_id = $1
          AND provider_updated_at <= $6
    `
	res, err := r.db.ExecContext(ctx, q,
		upd.StripeSubscriptionID,
		upd.Status,
		upd.CurrentPeriodStart,
		upd.CurrentPeriodEnd,
		upd.CancelAtPeriodEnd,
		upd.EventAt,
	)
	if err != nil {
		return false, fmt.Errorf("update subscription %s: %w", upd.StripeSubscriptionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
