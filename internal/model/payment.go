package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// Payment records a discrete charge attempt.
type Payment struct {
	ID                    string            `db:"id" json:"id"`
	UserID                string            `db:"user_id" json:"user_id"`
	StripePaymentIntentID string            `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id"`
	Amount                decimal.Decimal   `db:"amount" json:"amount"`
	Currency              string            `db:"currency" json:"currency"`
	Status                string            `db:"status" json:"status"`
	Description           string            `db:"description" json:"description"`
	Metadata              map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time         `db:"updated_at" json:"updated_at"`
}
