package service

import (
	"context"
	"fmt"
	"strings"

	"optikcoin/internal/gateway"
	"optikcoin/internal/model"
	"optikcoin/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentIntentInput is a request for a one-time charge.
type PaymentIntentInput struct {
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	Description string
	PlanType    string
}

type PaymentIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// PaymentService creates one-time payment intents and payment methods.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntentResult, error)
	CreatePaymentMethod(ctx context.Context, card gateway.CardDetails) (string, error)
}

type paymentService struct {
	users     repository.UserRepository
	payments  repository.PaymentRepository
	customers CustomerService
	gw        gateway.Gateway
	logger    zerolog.Logger
}

func NewPaymentService(
	users repository.UserRepository,
	payments repository.PaymentRepository,
	customers CustomerService,
	gw gateway.Gateway,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		users:     users,
		payments:  payments,
		customers: customers,
		gw:        gw,
		logger:    logger.With().Str("service", "PaymentService").Logger(),
	}
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntentResult, error) {
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}
	minor := gateway.ToMinorUnits(in.Amount, currency)
	if !in.Amount.IsPositive() || minor <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.users.GetUserByID(ctx, in.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("Failed to fetch user for payment intent")
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	customerID, err := s.customers.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{"user_id": user.ID, "plan_type": in.PlanType}
	intent, err := s.gw.CreatePaymentIntent(ctx, gateway.PaymentIntentRequest{
		AmountMinor: minor,
		Currency:    currency,
		CustomerID:  customerID,
		Description: in.Description,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create payment intent")
		return nil, err
	}

	payment := &model.Payment{
		UserID:                user.ID,
		StripePaymentIntentID: intent.ID,
		Amount:                in.Amount,
		Currency:              currency,
		Status:                model.PaymentPending,
		Description:           in.Description,
		Metadata:              metadata,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error().Err(err).Str("payment_intent_id", intent.ID).Msg("Failed to record pending payment")
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("payment_intent_id", intent.ID).
		Str("amount", in.Amount.String()).
		Msg("Payment intent created")
	return &PaymentIntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

func (s *paymentService) CreatePaymentMethod(ctx context.Context, card gateway.CardDetails) (string, error) {
	if card.Number == "" || card.CVC == "" || card.ExpMonth < 1 || card.ExpMonth > 12 || card.ExpYear <= 0 {
		return "", ErrInvalidInput
	}
	id, err := s.gw.CreatePaymentMethod(ctx, card)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create payment method")
		return "", err
	}
	return id, nil
}
