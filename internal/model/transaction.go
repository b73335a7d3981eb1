package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TxBuy          = "buy"
	TxSell         = "sell"
	TxMiningReward = "mining_reward"
	TxStake        = "stake"
)

// Transaction is an append-only ledger entry for a balance-affecting event.
type Transaction struct {
	ID         string           `db:"id" json:"id"`
	UserID     string           `db:"user_id" json:"user_id"`
	TokenID    *string          `db:"token_id" json:"token_id,omitempty"`
	Type       string           `db:"type" json:"type"`
	Amount     decimal.Decimal  `db:"amount" json:"amount"`
	Price      decimal.Decimal  `db:"price" json:"price"`
	TotalValue decimal.Decimal  `db:"total_value" json:"total_value"`
	Fee        *decimal.Decimal `db:"fee" json:"fee,omitempty"`
	TxHash     string           `db:"tx_hash" json:"tx_hash"`
	Status     string           `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}
