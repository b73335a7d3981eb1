package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"optikcoin/internal/model"

	"github.com/shopspring/decimal"
)

type TokenRepository interface {
	// CreateWithSeed inserts the token and its liquidity seed transaction atomically.
	CreateWithSeed(ctx context.Context, t *model.Token, seed *model.Transaction) error
	GetByID(ctx context.Context, id string) (*model.Token, error)
	ListActive(ctx context.Context, limit, offset int) ([]model.Token, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Token, error)
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*model.Token, error)
	UpdateLogoURL(ctx context.Context, id, logoURL string) error
	Activate(ctx context.Context, id string) (bool, error)
}

type tokenRepo struct {
	db *sql.DB
}

func NewTokenRepo(db *sql.DB) TokenRepository {
	return &tokenRepo{db: db}
}

const tokenColumns = `id, creator_id, name, symbol, description, total_supply, decimals, contract_address, liquidity_sol, liquidity_tokens, price, market_cap, status, logo_url, website, twitter, telegram, created_at, updated_at`

func scanToken(row interface{ Scan(...any) error }) (*model.Token, error) {
	var t model.Token
	var logo, website, twitter, telegram sql.NullString
	err := row.Scan(
		&t.ID, &t.CreatorID, &t.Name, &t.Symbol, &t.Description, &t.TotalSupply, &t.Decimals, &t.ContractAddress,
		&t.LiquiditySOL, &t.LiquidityTokens, &t.Price, &t.MarketCap, &t.Status,
		&logo, &website, &twitter, &telegram, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.LogoURL = nullableString(logo)
	t.Website = nullableString(website)
	t.Twitter = nullableString(twitter)
	t.Telegram = nullableString(telegram)
	return &t, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func (r *tokenRepo) CreateWithSeed(ctx context.Context, t *model.Token, seed *model.Transaction) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		const insertToken = `
            INSERT INTO tokens (creator_id, name, symbol, description, total_supply, decimals, contract_address,
                                liquidity_sol, liquidity_tokens, price, market_cap, status, website, twitter, telegram)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
            RETURNING id, created_at, updated_at
        `
		err := tx.QueryRowContext(ctx, insertToken,
			t.CreatorID, t.Name, t.Symbol, t.Description, t.TotalSupply, t.Decimals, t.ContractAddress,
			t.LiquiditySOL, t.LiquidityTokens, t.Price, t.MarketCap, t.Status, t.Website, t.Twitter, t.Telegram,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert token %s: %w", t.Symbol, err)
		}
		if seed == nil {
			return nil
		}
		seed.TokenID = &t.ID
		return insertTransaction(ctx, tx, seed)
	})
}

func (r *tokenRepo) GetByID(ctx context.Context, id string) (*model.Token, error) {
	q := `SELECT ` + tokenColumns + ` FROM tokens WHERE id = $1`
	t, err := scanToken(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch token %s: %w", id, err)
	}
	return t, nil
}

func (r *tokenRepo) listTokens(ctx context.Context, q string, args ...any) ([]model.Token, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return tokens, nil
}

func (r *tokenRepo) ListActive(ctx context.Context, limit, offset int) ([]model.Token, error) {
	q := `SELECT ` + tokenColumns + ` FROM tokens WHERE status = 'active' ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.listTokens(ctx, q, limit, offset)
}

func (r *tokenRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.Token, error) {
	q := `SELECT ` + tokenColumns + ` FROM tokens WHERE creator_id = $1 ORDER BY created_at DESC`
	return r.listTokens(ctx, q, creatorID)
}

func (r *tokenRepo) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*model.Token, error) {
	q := `
        UPDATE tokens
        SET price = $2, market_cap = $2 * total_supply, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + tokenColumns
	t, err := scanToken(r.db.QueryRowContext(ctx, q, id, price))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update price for token %s: %w", id, err)
	}
	return t, nil
}

func (r *tokenRepo) UpdateLogoURL(ctx context.Context, id, logoURL string) error {
	const q = `UPDATE tokens SET logo_url = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, logoURL); err != nil {
		return fmt.Errorf("update logo for token %s: %w", id, err)
	}
	return nil
}

func (r *tokenRepo) Activate(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE tokens SET status = 'active', updated_at = NOW() WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("activate token %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
