package service

import (
	"context"
	"fmt"

	"optikcoin/internal/gateway"
	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/rs/zerolog"
)

// CustomerService resolves the payment provider customer behind a user.
type CustomerService interface {
	GetOrCreateCustomer(ctx context.Context, user *model.UserProfile) (string, error)
}

type customerService struct {
	users  repository.UserRepository
	gw     gateway.Gateway
	logger zerolog.Logger
}

func NewCustomerService(users repository.UserRepository, gw gateway.Gateway, logger zerolog.Logger) CustomerService {
	return &customerService{
		users:  users,
		gw:     gw,
		logger: logger.With().Str("service", "CustomerService").Logger(),
	}
}

// GetOrCreateCustomer returns the stored customer id, creating a provider
// customer on first use. When two requests race, the id stored first wins
// and is returned to both; the loser's provider customer is left unused.
func (s *customerService) GetOrCreateCustomer(ctx context.Context, user *model.UserProfile) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	s.logger.Info().Str("user_id", user.ID).Msg("No Stripe customer ID found, creating customer")
	created, err := s.gw.CreateCustomer(ctx, user.Email, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create Stripe customer")
		return "", err
	}
	stored, err := s.users.SetStripeCustomerID(ctx, user.ID, created)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to store stripe customer id in user_profiles")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	if stored != created {
		s.logger.Warn().
			Str("user_id", user.ID).
			Str("stored_customer_id", stored).
			Str("orphaned_customer_id", created).
			Msg("Concurrent customer creation detected; keeping stored id")
	}
	user.StripeCustomerID = &stored
	return stored, nil
}
