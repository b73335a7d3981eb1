package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
)

// StripeGateway implements Gateway with the Stripe API.
type StripeGateway struct {
	logger zerolog.Logger
}

// NewStripeGateway sets the Stripe API key and returns a gateway with a scoped logger.
func NewStripeGateway(secretKey string, logger zerolog.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{logger: logger.With().Str("component", "StripeGateway").Logger()}
}

// providerError keeps the Stripe message so callers see the provider's wording.
func providerError(op string, err error) error {
	msg := err.Error()
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		msg = se.Msg
	}
	return &ProviderError{Op: op, Msg: msg, Err: err}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"user_id": userID},
	}
	params.Context = ctx
	cust, err := customerpkg.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe customer")
		return "", providerError("create customer", err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreatePaymentMethod(ctx context.Context, card CardDetails) (string, error) {
	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}
	params.Context = ctx
	pm, err := paymentmethod.New(params)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Card tokenization rejected")
		return "", providerError("create payment method", err)
	}
	return pm.ID, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(req.Currency),
		Customer:    stripe.String(req.CustomerID),
		Description: stripe.String(req.Description),
		Metadata:    req.Metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("customer_id", req.CustomerID).Msg("Failed to create payment intent")
		return nil, providerError("create payment intent", err)
	}
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	if _, err := paymentmethod.Attach(paymentMethodID, params); err != nil {
		return providerError("attach payment method", err)
	}
	return nil
}

func (g *StripeGateway) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	if _, err := customerpkg.Update(customerID, params); err != nil {
		return providerError("set default payment method", err)
	}
	return nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer:        stripe.String(req.CustomerID),
		Items:           []*stripe.SubscriptionItemsParams{{Price: stripe.String(req.PriceID)}},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
		Metadata: req.Metadata,
	}
	params.AddExpand("latest_invoice.confirmation_secret")
	params.Context = ctx
	sub, err := subscriptionpkg.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("customer_id", req.CustomerID).Str("price_id", req.PriceID).Msg("Failed to create subscription")
		return nil, providerError("create subscription", err)
	}
	return toSubscription(sub), nil
}

func toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Created:           time.Unix(sub.Created, 0).UTC(),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		out.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret != nil {
		out.ClientSecret = sub.LatestInvoice.ConfirmationSecret.ClientSecret
	}
	return out
}

// unixTime converts a Stripe timestamp, treating 0 as absent.
func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
