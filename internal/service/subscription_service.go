package service

import (
	"context"
	"fmt"
	"time"

	"optikcoin/internal/gateway"
	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/rs/zerolog"
)

type SubscriptionInput struct {
	UserID          string
	PlanType        string
	PaymentMethodID string
}

type SubscriptionResult struct {
	SubscriptionID string
	Status         string
	ClientSecret   string
}

// SubscriptionService starts recurring plans. It never writes the cached
// tier or status on the user profile; the webhook reconciler owns those.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, in SubscriptionInput) (*SubscriptionResult, error)
}

type subscriptionService struct {
	users     repository.UserRepository
	subs      repository.SubscriptionRepository
	customers CustomerService
	gw        gateway.Gateway
	priceIDs  map[string]string
	logger    zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
// priceIDs maps each paid plan type to its provider price.
func NewSubscriptionService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	customers CustomerService,
	gw gateway.Gateway,
	priceIDs map[string]string,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		users:     users,
		subs:      subs,
		customers: customers,
		gw:        gw,
		priceIDs:  priceIDs,
		logger:    logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, in SubscriptionInput) (*SubscriptionResult, error) {
	priceID, ok := s.priceIDs[in.PlanType]
	if !ok || priceID == "" {
		return nil, ErrUnknownPlan
	}
	if in.PaymentMethodID == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetUserByID(ctx, in.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("Failed to fetch user for subscription")
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.subs.GetLatestForUser(ctx, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to fetch existing subscription")
		return nil, fmt.Errorf("fetch subscription: %w", err)
	}
	if existing != nil && existing.IsLive() {
		return nil, ErrSubscriptionExists
	}

	customerID, err := s.customers.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.gw.AttachPaymentMethod(ctx, in.PaymentMethodID, customerID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to attach payment method")
		return nil, err
	}
	if err := s.gw.SetDefaultPaymentMethod(ctx, customerID, in.PaymentMethodID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to set default payment method")
		return nil, err
	}

	created, err := s.gw.CreateSubscription(ctx, gateway.SubscriptionRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		Metadata:   map[string]string{"user_id": user.ID, "plan_type": in.PlanType},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Str("plan_type", in.PlanType).Msg("Failed to create Stripe subscription")
		return nil, err
	}

	// provider_updated_at starts at the object's creation time so any webhook
	// describing it, including customer.subscription.created, still applies.
	eventAt := created.Created
	if eventAt.IsZero() {
		eventAt = time.Unix(0, 0).UTC()
	}
	local := &model.Subscription{
		UserID:               user.ID,
		StripeSubscriptionID: created.ID,
		PlanType:             in.PlanType,
		Status:               created.Status,
		CurrentPeriodStart:   created.CurrentPeriodStart,
		CurrentPeriodEnd:     created.CurrentPeriodEnd,
		CancelAtPeriodEnd:    created.CancelAtPeriodEnd,
		ProviderUpdatedAt:    eventAt,
	}
	inserted, err := s.subs.Insert(ctx, local)
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", created.ID).Msg("Failed to record subscription")
		return nil, fmt.Errorf("record subscription: %w", err)
	}
	if !inserted {
		// customer.subscription.created arrived first and already wrote the row.
		s.logger.Info().Str("subscription_id", created.ID).Msg("Subscription row already recorded by webhook")
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("subscription_id", created.ID).
		Str("plan_type", in.PlanType).
		Str("status", created.Status).
		Msg("Subscription created")
	return &SubscriptionResult{
		SubscriptionID: created.ID,
		Status:         created.Status,
		ClientSecret:   created.ClientSecret,
	}, nil
}
