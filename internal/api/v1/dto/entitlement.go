package dto

import "optikcoin/internal/entitlement"

// EntitlementsResponse is a hint for the client UI; the server re-checks
// every gated operation.
type EntitlementsResponse struct {
	Tier     string                       `json:"tier"`
	Status   string                       `json:"status"`
	Features map[entitlement.Feature]bool `json:"features"`
	// RequiredTiers names the minimum tier behind each feature, for upsell prompts.
	RequiredTiers map[entitlement.Feature]string `json:"required_tiers"`
}
