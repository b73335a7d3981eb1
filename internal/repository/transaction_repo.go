package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

// ErrProfileNotFound means a balance credit found no user profile to credit.
var ErrProfileNotFound = errors.New("user profile not found")

type TransactionRepository interface {
	// ApplyTrade appends the trade and moves the user's balance by delta in
	// one transaction. It reports false, writing nothing, when a debit would
	// take the balance below zero.
	ApplyTrade(ctx context.Context, t *model.Transaction, delta decimal.Decimal) (bool, error)
}

type transactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, q execQuerier, t *model.Transaction) error {
	const insert = `
        INSERT INTO transactions (user_id, token_id, type, amount, price, total_value, fee, tx_hash, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at
    `
	var fee any
	if t.Fee != nil {
		fee = *t.Fee
	}
	err := q.QueryRowContext(ctx, insert, t.UserID, t.TokenID, t.Type, t.Amount, t.Price, t.TotalValue, fee, t.TxHash, t.Status).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert %s transaction: %w", t.Type, err)
	}
	return nil
}

// adjustBalance adds delta to the user's OPTK balance, refusing to go negative.
func adjustBalance(ctx context.Context, q execQuerier, userID string, delta decimal.Decimal) (bool, error) {
	const update = `
        UPDATE user_profiles
        SET optk_balance = optk_balance + $2, updated_at = NOW()
        WHERE id = $1 AND optk_balance + $2 >= 0
    `
	res, err := q.ExecContext(ctx, update, userID, delta)
	if err != nil {
		return false, fmt.Errorf("adjust balance for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *transactionRepo) ApplyTrade(ctx context.Context, t *model.Transaction, delta decimal.Decimal) (bool, error) {
	applied := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := adjustBalance(ctx, tx, t.UserID, delta)
		if err != nil || !ok {
			return err
		}
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
