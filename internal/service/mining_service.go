package service

import (
	"context"
	"errors"
	"strings"

	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultPoolName = "OptikPool"

type MiningService interface {
	StartMining(ctx context.Context, userID, poolName string) (*model.MiningRecord, error)
	// StopMining is idempotent: stopping an inactive or missing record succeeds.
	StopMining(ctx context.Context, userID string) error
	ClaimRewards(ctx context.Context, userID string) (decimal.Decimal, error)
	UpdateStats(ctx context.Context, userID string, hashRate, earned decimal.Decimal) (*model.MiningRecord, error)
	UserMining(ctx context.Context, userID string) (*model.MiningRecord, error)
	PoolStats(ctx context.Context) (*model.PoolStats, error)
}

type miningService struct {
	mining repository.MiningRepository
	logger zerolog.Logger
}

func NewMiningService(mining repository.MiningRepository, logger zerolog.Logger) MiningService {
	return &miningService{
		mining: mining,
		logger: logger.With().Str("service", "MiningService").Logger(),
	}
}

func (s *miningService) StartMining(ctx context.Context, userID, poolName string) (*model.MiningRecord, error) {
	poolName = strings.TrimSpace(poolName)
	if poolName == "" {
		poolName = DefaultPoolName
	}
	started, err := s.mining.Start(ctx, userID, poolName)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to start mining")
		return nil, err
	}
	if !started {
		return nil, ErrMiningAlreadyActive
	}
	s.logger.Info().Str("user_id", userID).Str("pool", poolName).Msg("Mining started")
	return s.mining.Get(ctx, userID)
}

func (s *miningService) StopMining(ctx context.Context, userID string) error {
	stopped, err := s.mining.Stop(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to stop mining")
		return err
	}
	if !stopped {
		s.logger.Info().Str("user_id", userID).Msg("Stop requested with no active mining; nothing to do")
		return nil
	}
	s.logger.Info().Str("user_id", userID).Msg("Mining stopped")
	return nil
}

func (s *miningService) ClaimRewards(ctx context.Context, userID string) (decimal.Decimal, error) {
	reward := &model.Transaction{
		Type:   model.TxMiningReward,
		Price:  decimal.NewFromInt(1),
		TxHash: txHash(),
		Status: "confirmed",
	}
	amount, err := s.mining.Claim(ctx, userID, reward)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to claim mining rewards")
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrNoRewards
	}
	s.logger.Info().Str("user_id", userID).Str("amount", amount.String()).Msg("Mining rewards claimed")
	return amount, nil
}

func (s *miningService) UpdateStats(ctx context.Context, userID string, hashRate, earned decimal.Decimal) (*model.MiningRecord, error) {
	if hashRate.IsNegative() || earned.IsNegative() {
		return nil, ErrInvalidAmount
	}
	rec, err := s.mining.UpdateStats(ctx, userID, hashRate, earned)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrMiningNotActive
	}
	return rec, nil
}

// UserMining returns the caller's record, or nil when they never mined.
func (s *miningService) UserMining(ctx context.Context, userID string) (*model.MiningRecord, error) {
	return s.mining.Get(ctx, userID)
}

func (s *miningService) PoolStats(ctx context.Context) (*model.PoolStats, error) {
	return s.mining.PoolStats(ctx)
}
