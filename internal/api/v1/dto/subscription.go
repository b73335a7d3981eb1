package dto

type CreateSubscriptionRequest struct {
	UserID          string `json:"userId" validate:"omitempty,uuid"`
	PlanType        string `json:"planType" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscription_id"`
	Status         string `json:"status"`
	ClientSecret   string `json:"client_secret,omitempty"`
}

// WebhookAck acknowledges a processed or intentionally ignored event.
type WebhookAck struct {
	Received bool `json:"received"`
}
