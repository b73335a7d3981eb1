package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription tiers.
const (
	TierFree           = "free"
	TierProCreator     = "pro_creator"
	TierUltimateBundle = "ultimate_bundle"
)

// Profile subscription statuses.
const (
	StatusInactive  = "inactive"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

// UserProfile is the identity and entitlement record of a platform user.
type UserProfile struct {
	ID                 string          `db:"id" json:"id"`
	Email              string          `db:"email" json:"email"`
	StripeCustomerID   *string         `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	SubscriptionTier   string          `db:"subscription_tier" json:"subscription_tier"`
	SubscriptionStatus string          `db:"subscription_status" json:"subscription_status"`
	OPTKBalance        decimal.Decimal `db:"optk_balance" json:"optk_balance"`
	TotalSpent         decimal.Decimal `db:"total_spent" json:"total_spent"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// HasActiveSubscription reports whether the cached status is active.
func (u *UserProfile) HasActiveSubscription() bool {
	return u.SubscriptionStatus == StatusActive
}
