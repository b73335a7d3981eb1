package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"optikcoin/internal/model"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*model.UserProfile, error)
	GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.UserProfile, error)
	// SetStripeCustomerID stores customerID unless one is already present and
	// returns whichever id the profile holds afterwards.
	SetStripeCustomerID(ctx context.Context, userID, customerID string) (string, error)
	BackfillStripeCustomerID(ctx context.Context, email, customerID string) (bool, error)
	UpdateSubscriptionState(ctx context.Context, userID, tier, status string) error
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, stripe_customer_id, subscription_tier, subscription_status, optk_balance, total_spent, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.UserProfile, error) {
	var u model.UserProfile
	var customerID sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &customerID, &u.SubscriptionTier, &u.SubscriptionStatus, &u.OPTKBalance, &u.TotalSpent, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if customerID.Valid {
		u.StripeCustomerID = &customerID.String
	}
	return &u, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM user_profiles WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM user_profiles WHERE stripe_customer_id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user by customer %s: %w", customerID, err)
	}
	return u, nil
}

func (r *userRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) (string, error) {
	const q = `
        WITH upd AS (
            UPDATE user_profiles
            SET stripe_customer_id = $2, updated_at = NOW()
            WHERE id = $1 AND stripe_customer_id IS NULL
            RETURNING stripe_customer_id
        )
        SELECT stripe_customer_id FROM upd
        UNION ALL
        SELECT stripe_customer_id FROM user_profiles
        WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM upd)
    `
	var stored sql.NullString
	if err := r.db.QueryRowContext(ctx, q, userID, customerID).Scan(&stored); err != nil {
		return "", fmt.Errorf("store stripe customer id for user %s: %w", userID, err)
	}
	if !stored.Valid {
		return "", fmt.Errorf("store stripe customer id for user %s: no id persisted", userID)
	}
	return stored.String, nil
}

func (r *userRepo) BackfillStripeCustomerID(ctx context.Context, email, customerID string) (bool, error) {
	const q = `
        UPDATE user_profiles
        SET stripe_customer_id = $2, updated_at = NOW()
        WHERE lower(email) = lower($1) AND stripe_customer_id IS NULL
    `
	res, err := r.db.ExecContext(ctx, q, email, customerID)
	if err != nil {
		return false, fmt.Errorf("backfill stripe customer %s: %w", customerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) UpdateSubscriptionState(ctx context.Context, userID, tier, status string) error {
	const q = `
        UPDATE user_profiles
        SET subscription_tier = $2, subscription_status = $3, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.db.ExecContext(ctx, q, userID, tier, status); err != nil {
		return fmt.Errorf("update subscription state for user %s: %w", userID, err)
	}
	return nil
}
