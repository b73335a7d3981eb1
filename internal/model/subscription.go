package model

import "time"

// Subscription mirrors a Stripe subscription for one user.
type Subscription struct {
	ID                   string     `db:"id" json:"id"`
	UserID               string     `db:"user_id" json:"user_id"`
	StripeSubscriptionID string     `db:"stripe_subscription_id" json:"stripe_subscription_id"`
	PlanType             string     `db:"plan_type" json:"plan_type"`
	Status               string     `db:"status" json:"status"`
	CurrentPeriodStart   *time.Time `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `db:"current_period_end" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	ProviderUpdatedAt    time.Time  `db:"provider_updated_at" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsLive reports whether the subscription still blocks a new one from being created.
func (s *Subscription) IsLive() bool {
	switch s.Status {
	case "active", "trialing", "past_due":
		return true
	}
	return false
}

// SubscriptionUpdate carries provider state applied by the webhook reconciler.
// EventAt is the provider event timestamp used to discard stale deliveries.
type SubscriptionUpdate struct {
	StripeSubscriptionID string
	Status               string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    *bool
	EventAt              time.Time
}
