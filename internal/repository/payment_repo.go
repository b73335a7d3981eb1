package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error)
	// MarkSucceeded records the payment as succeeded, inserting it when the
	// intent is unknown, and adds the amount to the user's total_spent. It
	// reports false when the payment had already succeeded.
	MarkSucceeded(ctx context.Context, p *model.Payment) (bool, error)
	MarkFailed(ctx context.Context, intentID string) (bool, error)
}

type paymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func marshalMetadata(md map[string]string) (string, error) {
	if md == nil {
		return "{}", nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("marshal payment metadata: %w", err)
	}
	return string(b), nil
}

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	const q = `
        INSERT INTO payments (user_id, stripe_payment_intent_id, amount, currency, status, description, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
        RETURNING id, created_at, updated_at
    `
	err = r.db.QueryRowContext(ctx, q, p.UserID, p.StripePaymentIntentID, p.Amount, p.Currency, p.Status, p.Description, metadata).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment %s: %w", p.StripePaymentIntentID, err)
	}
	return nil
}

func (r *paymentRepo) GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	const q = `
        SELECT id, user_id, stripe_payment_intent_id, amount, currency, status, description, metadata, created_at, updated_at
        FROM payments WHERE stripe_payment_intent_id = $1
    `
	var p model.Payment
	var rawMetadata []byte
	err := r.db.QueryRowContext(ctx, q, intentID).Scan(
		&p.ID, &p.UserID, &p.StripePaymentIntentID, &p.Amount, &p.Currency, &p.Status, &p.Description, &rawMetadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch payment %s: %w", intentID, err)
	}
	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for payment %s: %w", intentID, err)
		}
	}
	return &p, nil
}

func (r *paymentRepo) MarkSucceeded(ctx context.Context, p *model.Payment) (bool, error) {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return false, err
	}
	transitioned := false
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		const upsert = `
            INSERT INTO payments (user_id, stripe_payment_intent_id, amount, currency, status, description, metadata)
            VALUES ($1, $2, $3, $4, 'succeeded', $5, $6::jsonb)
            ON CONFLICT (stripe_payment_intent_id) DO UPDATE
            SET status = 'succeeded', updated_at = NOW()
            WHERE payments.status <> 'succeeded'
            RETURNING user_id, amount
        `
		var userID string
		var amount decimal.Decimal
		err := tx.QueryRowContext(ctx, upsert, p.UserID, p.StripePaymentIntentID, p.Amount, p.Currency, p.Description, metadata).Scan(&userID, &amount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("mark payment %s succeeded: %w", p.StripePaymentIntentID, err)
		}
		const spent = `UPDATE user_profiles SET total_spent = total_spent + $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, spent, userID, amount); err != nil {
			return fmt.Errorf("increment total_spent for user %s: %w", userID, err)
		}
		transitioned = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return transitioned, nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, intentID string) (bool, error) {
	const q = `UPDATE payments SET status = 'failed', updated_at = NOW() WHERE stripe_payment_intent_id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, intentID)
	if err != nil {
		return false, fmt.Errorf("mark payment %s failed: %w", intentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
