package dto

import (
	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

// CreateTokenRequest launches a new token. Decimals defaults to 9 when omitted.
type CreateTokenRequest struct {
	UserID          string          `json:"userId" validate:"omitempty,uuid"`
	Name            string          `json:"name" validate:"required,max=64"`
	Symbol          string          `json:"symbol" validate:"required"`
	Description     string          `json:"description,omitempty" validate:"max=1000"`
	TotalSupply     decimal.Decimal `json:"totalSupply"`
	Decimals        *int            `json:"decimals,omitempty" validate:"omitempty,min=0,max=18"`
	LiquiditySOL    decimal.Decimal `json:"liquiditySol"`
	LiquidityTokens decimal.Decimal `json:"liquidityTokens"`
	Website         *string         `json:"website,omitempty" validate:"omitempty,url"`
	Twitter         *string         `json:"twitter,omitempty"`
	Telegram        *string         `json:"telegram,omitempty"`
}

type TradeRequest struct {
	UserID  string          `json:"userId" validate:"omitempty,uuid"`
	TokenID string          `json:"tokenId" validate:"required,uuid"`
	Type    string          `json:"type" validate:"required,oneof=buy sell"`
	Amount  decimal.Decimal `json:"amount"`
}

type UpdatePriceRequest struct {
	UserID  string          `json:"userId" validate:"omitempty,uuid"`
	TokenID string          `json:"tokenId" validate:"required,uuid"`
	Price   decimal.Decimal `json:"price"`
}

type LogoUploadRequest struct {
	UserID      string `json:"userId" validate:"omitempty,uuid"`
	TokenID     string `json:"tokenId" validate:"required,uuid"`
	ContentType string `json:"contentType" validate:"required"`
}

// ConfirmLogoRequest finishes an upload started with LogoUploadRequest.
type ConfirmLogoRequest struct {
	UserID  string `json:"userId" validate:"omitempty,uuid"`
	TokenID string `json:"tokenId" validate:"required,uuid"`
	Key     string `json:"key" validate:"required"`
}

type TokenResponse struct {
	Success bool         `json:"success"`
	Token   *model.Token `json:"token"`
}

type TokenListResponse struct {
	Tokens []model.Token `json:"tokens"`
}

type TradeResponse struct {
	Success     bool               `json:"success"`
	Transaction *model.Transaction `json:"transaction"`
}

type LogoUploadResponse struct {
	UploadURL string `json:"upload_url"`
	LogoURL   string `json:"logo_url"`
	Key       string `json:"key"`
}
