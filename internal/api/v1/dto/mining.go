package dto

import (
	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

// MiningRequest identifies the caller for start, stop and claim.
type MiningRequest struct {
	UserID   string `json:"userId" validate:"omitempty,uuid"`
	PoolName string `json:"poolName,omitempty" validate:"max=64"`
}

type UpdateMiningStatsRequest struct {
	UserID   string          `json:"userId" validate:"omitempty,uuid"`
	HashRate decimal.Decimal `json:"hashRate"`
	Earnings decimal.Decimal `json:"earnings"`
}

type MiningResponse struct {
	Success bool                `json:"success"`
	Mining  *model.MiningRecord `json:"mining"`
}

type ClaimResponse struct {
	Success bool            `json:"success"`
	Claimed decimal.Decimal `json:"claimed_amount"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
