package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MiningActive   = "active"
	MiningInactive = "inactive"
)

// MiningRecord is the per-user mining session; one row per user.
type MiningRecord struct {
	UserID        string          `db:"user_id" json:"user_id"`
	PoolName      string          `db:"pool_name" json:"pool_name"`
	Status        string          `db:"status" json:"status"`
	HashRate      decimal.Decimal `db:"hash_rate" json:"hash_rate"`
	EarningsToday decimal.Decimal `db:"earnings_today" json:"earnings_today"`
	TotalEarnings decimal.Decimal `db:"total_earnings" json:"total_earnings"`
	LastActivity  time.Time       `db:"last_activity" json:"last_activity"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// PoolStats aggregates mining activity across all users.
type PoolStats struct {
	ActiveMiners       int             `json:"active_miners"`
	TotalHashRate      decimal.Decimal `json:"total_hash_rate"`
	TotalEarningsToday decimal.Decimal `json:"total_earnings_today"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
}
