package dto

import "github.com/shopspring/decimal"

// CreatePaymentIntentRequest starts a one-time charge.
type CreatePaymentIntentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Description string          `json:"description" validate:"required"`
	UserID      string          `json:"userId" validate:"omitempty,uuid"`
	PlanType    string          `json:"planType,omitempty"`
}

type CreatePaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// CreatePaymentMethodRequest carries raw card input for tokenization.
type CreatePaymentMethodRequest struct {
	UserID   string `json:"userId" validate:"omitempty,uuid"`
	Number   string `json:"number" validate:"required,numeric,min=12,max=19"`
	ExpMonth int64  `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear  int64  `json:"expYear" validate:"required,min=2000"`
	CVC      string `json:"cvc" validate:"required,numeric,min=3,max=4"`
}

type CreatePaymentMethodResponse struct {
	PaymentMethodID string `json:"payment_method_id"`
}
