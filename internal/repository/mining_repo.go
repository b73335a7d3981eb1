package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

type MiningRepository interface {
	Get(ctx context.Context, userID string) (*model.MiningRecord, error)
	// Start activates mining for the user; false means it was already active.
	Start(ctx context.Context, userID, poolName string) (bool, error)
	// Stop deactivates mining; false means no active record existed.
	Stop(ctx context.Context, userID string) (bool, error)
	// UpdateStats sets the hash rate and accrues earnings on an active record.
	// It returns nil when the user is not mining.
	UpdateStats(ctx context.Context, userID string, hashRate, earned decimal.Decimal) (*model.MiningRecord, error)
	// Claim moves earnings_today into the balance and total_earnings and
	// appends reward as a mining_reward transaction, atomically. A zero
	// amount means there was nothing to claim.
	Claim(ctx context.Context, userID string, reward *model.Transaction) (decimal.Decimal, error)
	PoolStats(ctx context.Context) (*model.PoolStats, error)
}

type miningRepo struct {
	db *sql.DB
}

func NewMiningRepo(db *sql.DB) MiningRepository {
	return &miningRepo{db: db}
}

const miningColumns = `user_id, pool_name, status, hash_rate, earnings_today, total_earnings, last_activity, created_at`

func scanMining(row interface{ Scan(...any) error }) (*model.MiningRecord, error) {
	var m model.MiningRecord
	if err := row.Scan(&m.UserID, &m.PoolName, &m.Status, &m.HashRate, &m.EarningsToday, &m.TotalEarnings, &m.LastActivity, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *miningRepo) Get(ctx context.Context, userID string) (*model.MiningRecord, error) {
	q := `SELECT ` + miningColumns + ` FROM mining_records WHERE user_id = $1`
	m, err := scanMining(r.db.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch mining record for user %s: %w", userID, err)
	}
	return m, nil
}

func (r *miningRepo) Start(ctx context.Context, userID, poolName string) (bool, error) {
	const q = `
        INSERT INTO mining_records (user_id, pool_name, status, hash_rate, earnings_today, last_activity)
        VALUES ($1, $2, 'active', 0, 0, NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET pool_name = EXCLUDED.pool_name,
            status = 'active',
            hash_rate = 0,
            earnings_today = 0,
            last_activity = NOW()
        WHERE mining_records.status <> 'active'
    `
	res, err := r.db.ExecContext(ctx, q, userID, poolName)
	if err != nil {
		return false, fmt.Errorf("start mining for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *miningRepo) Stop(ctx context.Context, userID string) (bool, error) {
	const q = `
        UPDATE mining_records
        SET status = 'inactive', hash_rate = 0, last_activity = NOW()
        WHERE user_id = $1 AND status = 'active'
    `
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return false, fmt.Errorf("stop mining for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *miningRepo) UpdateStats(ctx context.Context, userID string, hashRate, earned decimal.Decimal) (*model.MiningRecord, error) {
	q := `
        UPDATE mining_records
        SET hash_rate = $2, earnings_today = earnings_today + $3, last_activity = NOW()
        WHERE user_id = $1 AND status = 'active'
        RETURNING ` + miningColumns
	m, err := scanMining(r.db.QueryRowContext(ctx, q, userID, hashRate, earned))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update mining stats for user %s: %w", userID, err)
	}
	return m, nil
}

func (r *miningRepo) Claim(ctx context.Context, userID string, reward *model.Transaction) (decimal.Decimal, error) {
	claimed := decimal.Zero
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		// The row lock taken by the sub-select serialises concurrent claims;
		// the loser sees earnings_today = 0 and claims nothing.
		const take = `
            UPDATE mining_records m
            SET total_earnings = m.total_earnings + old.earnings_today,
                earnings_today = 0,
                last_activity = NOW()
            FROM (
                SELECT user_id, earnings_today FROM mining_records
                WHERE user_id = $1 AND earnings_today > 0
                FOR UPDATE
            ) old
            WHERE m.user_id = old.user_id
            RETURNING old.earnings_today
        `
		var amount decimal.Decimal
		if err := tx.QueryRowContext(ctx, take, userID).Scan(&amount); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("claim mining rewards for user %s: %w", userID, err)
		}
		credited, err := adjustBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		if !credited {
			return fmt.Errorf("credit mining rewards for user %s: %w", userID, ErrProfileNotFound)
		}
		reward.UserID = userID
		reward.Amount = amount
		reward.TotalValue = amount
		if err := insertTransaction(ctx, tx, reward); err != nil {
			return err
		}
		claimed = amount
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return claimed, nil
}

func (r *miningRepo) PoolStats(ctx context.Context) (*model.PoolStats, error) {
	const q = `
        SELECT COUNT(*) FILTER (WHERE status = 'active'),
               COALESCE(SUM(hash_rate) FILTER (WHERE status = 'active'), 0),
               COALESCE(SUM(earnings_today), 0),
               COALESCE(SUM(total_earnings), 0)
        FROM mining_records
    `
	var s model.PoolStats
	if err := r.db.QueryRowContext(ctx, q).Scan(&s.ActiveMiners, &s.TotalHashRate, &s.TotalEarningsToday, &s.TotalEarnings); err != nil {
		return nil, fmt.Errorf("fetch pool stats: %w", err)
	}
	return &s, nil
}
