package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FeeRate is the trading fee charged on every token trade.
var FeeRate = decimal.RequireFromString("0.003")

const defaultDecimals = 9

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// JobQueue enqueues background jobs; satisfied by the pgmq client.
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// LogoStorage issues upload URLs for token logos and confirms uploads.
type LogoStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (uploadURL, publicURL string, err error)
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

// TokenActivationJob is the payload of a token_activation queue message.
type TokenActivationJob struct {
	TokenID string `json:"token_id"`
}

type CreateTokenInput struct {
	CreatorID       string
	Name            string
	Symbol          string
	Description     string
	TotalSupply     decimal.Decimal
	Decimals        *int
	LiquiditySOL    decimal.Decimal
	LiquidityTokens decimal.Decimal
	Website         *string
	Twitter         *string
	Telegram        *string
}

type TradeInput struct {
	UserID  string
	TokenID string
	Type    string
	Amount  decimal.Decimal
}

// LogoUpload is a pending upload. The token keeps its old logo until the
// upload under Key is confirmed.
type LogoUpload struct {
	UploadURL string
	LogoURL   string
	Key       string
}

type TokenService interface {
	CreateToken(ctx context.Context, in CreateTokenInput) (*model.Token, error)
	Trade(ctx context.Context, in TradeInput) (*model.Transaction, error)
	ListTokens(ctx context.Context, limit, offset int) ([]model.Token, error)
	UserTokens(ctx context.Context, userID string) ([]model.Token, error)
	UpdatePrice(ctx context.Context, userID, tokenID string, price decimal.Decimal) (*model.Token, error)
	RequestLogoUpload(ctx context.Context, userID, tokenID, contentType string) (*LogoUpload, error)
	ConfirmLogoUpload(ctx context.Context, userID, tokenID, key string) (*model.Token, error)
}

type tokenService struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	trades    repository.TransactionRepository
	queue     JobQueue
	queueName string
	logos     LogoStorage
	now       func() time.Time
	logger    zerolog.Logger
}

// NewTokenService wires the token operations. logos may be nil when storage
// is not configured.
func NewTokenService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	trades repository.TransactionRepository,
	queue JobQueue,
	queueName string,
	logos LogoStorage,
	logger zerolog.Logger,
) TokenService {
	return &tokenService{
		users:     users,
		tokens:    tokens,
		trades:    trades,
		queue:     queue,
		queueName: queueName,
		logos:     logos,
		now:       time.Now,
		logger:    logger.With().Str("service", "TokenService").Logger(),
	}
}

// randomSuffix returns n lowercase hex characters.
func randomSuffix(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// ContractAddress builds the opaque token identifier. It is not an on-chain address.
func ContractAddress(symbol string, at time.Time) string {
	return fmt.Sprintf("%s%d%s", symbol, at.UnixMilli(), randomSuffix(8))
}

func txHash() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *tokenService) requireActive(ctx context.Context, userID string) (*model.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.HasActiveSubscription() {
		return nil, ErrActiveSubscriptionRequired
	}
	return user, nil
}

func (s *tokenService) CreateToken(ctx context.Context, in CreateTokenInput) (*model.Token, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	name := strings.TrimSpace(in.Name)
	if name == "" || !symbolPattern.MatchString(symbol) {
		return nil, ErrInvalidInput
	}
	if !in.TotalSupply.IsPositive() || !in.LiquiditySOL.IsPositive() || !in.LiquidityTokens.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.LiquidityTokens.GreaterThan(in.TotalSupply) {
		return nil, ErrInvalidInput
	}
	decimals := defaultDecimals
	if in.Decimals != nil {
		if *in.Decimals < 0 || *in.Decimals > 18 {
			return nil, ErrInvalidInput
		}
		decimals = *in.Decimals
	}

	if _, err := s.requireActive(ctx, in.CreatorID); err != nil {
		return nil, err
	}

	price := in.LiquiditySOL.DivRound(in.LiquidityTokens, 18)
	token := &model.Token{
		CreatorID:       in.CreatorID,
		Name:            name,
		Symbol:          symbol,
		Description:     in.Description,
		TotalSupply:     in.TotalSupply,
		Decimals:        decimals,
		ContractAddress: ContractAddress(symbol, s.now()),
		LiquiditySOL:    in.LiquiditySOL,
		LiquidityTokens: in.LiquidityTokens,
		Price:           price,
		MarketCap:       price.Mul(in.TotalSupply),
		Status:          model.TokenPending,
		Website:         in.Website,
		Twitter:         in.Twitter,
		Telegram:        in.Telegram,
	}
	seed := &model.Transaction{
		UserID:     in.CreatorID,
		Type:       model.TxStake,
		Amount:     in.LiquidityTokens,
		Price:      price,
		TotalValue: in.LiquiditySOL,
		TxHash:     txHash(),
		Status:     "confirmed",
	}
	if err := s.tokens.CreateWithSeed(ctx, token, seed); err != nil {
		s.logger.Error().Err(err).Str("user_id", in.CreatorID).Str("symbol", symbol).Msg("Failed to create token")
		return nil, err
	}

	// A failed enqueue leaves the token pending; the row is still returned.
	job, _ := json.Marshal(TokenActivationJob{TokenID: token.ID})
	if err := s.queue.Send(ctx, s.queueName, job); err != nil {
		s.logger.Error().Err(err).Str("token_id", token.ID).Str("queue", s.queueName).Msg("Failed to enqueue token activation")
	}

	s.logger.Info().
		Str("token_id", token.ID).
		Str("symbol", symbol).
		Str("contract_address", token.ContractAddress).
		Msg("Token created")
	return token, nil
}

func (s *tokenService) Trade(ctx context.Context, in TradeInput) (*model.Transaction, error) {
	if in.Type != model.TxBuy && in.Type != model.TxSell {
		return nil, ErrInvalidTradeType
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	token, err := s.tokens.GetByID(ctx, in.TokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}

	total := in.Amount.Mul(token.Price)
	fee := total.Mul(FeeRate)
	var delta decimal.Decimal
	if in.Type == model.TxBuy {
		delta = total.Add(fee).Neg()
	} else {
		delta = total.Sub(fee)
	}

	tx := &model.Transaction{
		UserID:     in.UserID,
		TokenID:    &token.ID,
		Type:       in.Type,
		Amount:     in.Amount,
		Price:      token.Price,
		TotalValue: total,
		Fee:        &fee,
		TxHash:     txHash(),
		Status:     "confirmed",
	}
	ok, err := s.trades.ApplyTrade(ctx, tx, delta)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Str("token_id", token.ID).Msg("Failed to apply trade")
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}
	s.logger.Info().
		Str("user_id", in.UserID).
		Str("token_id", token.ID).
		Str("type", in.Type).
		Str("balance_delta", delta.String()).
		Msg("Trade executed")
	return tx, nil
}

func (s *tokenService) ListTokens(ctx context.Context, limit, offset int) ([]model.Token, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.tokens.ListActive(ctx, limit, offset)
}

func (s *tokenService) UserTokens(ctx context.Context, userID string) ([]model.Token, error) {
	return s.tokens.ListByCreator(ctx, userID)
}

func (s *tokenService) ownedToken(ctx context.Context, userID, tokenID string) (*model.Token, error) {
	token, err := s.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	if token.CreatorID != userID {
		return nil, ErrNotTokenCreator
	}
	return token, nil
}

func (s *tokenService) UpdatePrice(ctx context.Context, userID, tokenID string, price decimal.Decimal) (*model.Token, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.ownedToken(ctx, userID, tokenID); err != nil {
		return nil, err
	}
	updated, err := s.tokens.UpdatePrice(ctx, tokenID, price)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrTokenNotFound
	}
	return updated, nil
}

var logoExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/webp":    "webp",
	"image/gif":     "gif",
	"image/svg+xml": "svg",
}

func (s *tokenService) RequestLogoUpload(ctx context.Context, userID, tokenID, contentType string) (*LogoUpload, error) {
	if s.logos == nil {
		return nil, ErrStorageUnavailable
	}
	ext, ok := logoExtensions[contentType]
	if !ok {
		return nil, ErrInvalidInput
	}
	if _, err := s.ownedToken(ctx, userID, tokenID); err != nil {
		return nil, err
	}
	key := path.Join("tokens", tokenID, fmt.Sprintf("logo-%s.%s", randomSuffix(8), ext))
	uploadURL, publicURL, err := s.logos.PresignUpload(ctx, key, contentType)
	if err != nil {
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("Failed to presign logo upload")
		return nil, err
	}
	return &LogoUpload{UploadURL: uploadURL, LogoURL: publicURL, Key: key}, nil
}

// ConfirmLogoUpload points the token at an uploaded logo once the object
// exists in storage.
func (s *tokenService) ConfirmLogoUpload(ctx context.Context, userID, tokenID, key string) (*model.Token, error) {
	if s.logos == nil {
		return nil, ErrStorageUnavailable
	}
	if !strings.HasPrefix(key, path.Join("tokens", tokenID)+"/") || path.Clean(key) != key {
		return nil, ErrInvalidInput
	}
	token, err := s.ownedToken(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}
	uploaded, err := s.logos.Exists(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("Failed to check logo upload")
		return nil, err
	}
	if !uploaded {
		return nil, ErrLogoNotUploaded
	}
	logoURL := s.logos.URL(key)
	if err := s.tokens.UpdateLogoURL(ctx, tokenID, logoURL); err != nil {
		return nil, err
	}
	token.LogoURL = &logoURL
	s.logger.Info().Str("token_id", tokenID).Str("logo_url", logoURL).Msg("Token logo updated")
	return token, nil
}
