// Package gateway wraps the payment provider SDK behind a small interface so
// the payment services can be exercised without network access.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrProvider marks errors returned by the payment provider. The wrapped
// message is the provider's own, suitable for showing to the caller.
var ErrProvider = errors.New("payment provider error")

// ProviderError carries the provider's message for a failed operation.
// Error returns only that message; errors.Is matches ErrProvider.
type ProviderError struct {
	Op  string
	Msg string
	Err error
}

func (e *ProviderError) Error() string { return e.Msg }

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// CardDetails is raw card input to be exchanged for a payment method handle.
type CardDetails struct {
	Number   string
	ExpMonth int64
	ExpYear  int64
	CVC      string
}

type PaymentIntentRequest struct {
	AmountMinor int64
	Currency    string
	CustomerID  string
	Description string
	Metadata    map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type SubscriptionRequest struct {
	CustomerID string
	PriceID    string
	Metadata   map[string]string
}

type Subscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	ClientSecret       string
	Created            time.Time
}

// Gateway is the set of provider operations the platform relies on.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreatePaymentMethod(ctx context.Context, card CardDetails) (string, error)
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
}
