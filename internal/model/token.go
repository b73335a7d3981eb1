package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TokenPending = "pending"
	TokenActive  = "active"
)

// Token is a meme-coin launch record. ContractAddress is an opaque
// identifier, not an on-chain deployment.
type Token struct {
	ID              string          `db:"id" json:"id"`
	CreatorID       string          `db:"creator_id" json:"creator_id"`
	Name            string          `db:"name" json:"name"`
	Symbol          string          `db:"symbol" json:"symbol"`
	Description     string          `db:"description" json:"description"`
	TotalSupply     decimal.Decimal `db:"total_supply" json:"total_supply"`
	Decimals        int             `db:"decimals" json:"decimals"`
	ContractAddress string          `db:"contract_address" json:"contract_address"`
	LiquiditySOL    decimal.Decimal `db:"liquidity_sol" json:"liquidity_sol"`
	LiquidityTokens decimal.Decimal `db:"liquidity_tokens" json:"liquidity_tokens"`
	Price           decimal.Decimal `db:"price" json:"price"`
	MarketCap       decimal.Decimal `db:"market_cap" json:"market_cap"`
	Status          string          `db:"status" json:"status"`
	LogoURL         *string         `db:"logo_url" json:"logo_url,omitempty"`
	Website         *string         `db:"website" json:"website,omitempty"`
	Twitter         *string         `db:"twitter" json:"twitter,omitempty"`
	Telegram        *string         `db:"telegram" json:"telegram,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
