// Package entitlement answers which premium features a cached subscription
// state unlocks. It is advisory: server operations re-check entitlement
// against the store before acting.
package entitlement

import "optikcoin/internal/model"

type Feature string

const (
	FeatureViewCharts      Feature = "view_charts"
	FeatureBasicSwap       Feature = "basic_swap"
	FeatureCreateToken     Feature = "create_token"
	FeatureAdvancedCharts  Feature = "advanced_charts"
	FeatureAIChat          Feature = "ai_chat"
	FeatureMining          Feature = "mining"
	FeatureSecurityScan    Feature = "security_scan"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureMiningBoost     Feature = "mining_boost"
)

var tierRank = map[string]int{
	model.TierFree:           0,
	model.TierProCreator:     1,
	model.TierUltimateBundle: 2,
}

// requiredTier is the static feature to minimum tier table.
var requiredTier = map[Feature]string{
	FeatureViewCharts:      model.TierFree,
	FeatureBasicSwap:       model.TierFree,
	FeatureCreateToken:     model.TierProCreator,
	FeatureAdvancedCharts:  model.TierProCreator,
	FeatureAIChat:          model.TierProCreator,
	FeatureMining:          model.TierProCreator,
	FeatureSecurityScan:    model.TierUltimateBundle,
	FeaturePrioritySupport: model.TierUltimateBundle,
	FeatureMiningBoost:     model.TierUltimateBundle,
}

// State is the cached subscription state of a user.
type State struct {
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

// StateOf extracts the cached state from a profile.
func StateOf(u *model.UserProfile) State {
	if u == nil {
		return State{Tier: model.TierFree, Status: model.StatusInactive}
	}
	return State{Tier: u.SubscriptionTier, Status: u.SubscriptionStatus}
}

// HasAccess reports whether state unlocks feature. Free features are always
// available; paid ones need an active status and a high enough tier.
// Unknown features and tiers are denied.
func HasAccess(feature Feature, state State) bool {
	need, ok := requiredTier[feature]
	if !ok {
		return false
	}
	if need == model.TierFree {
		return true
	}
	if state.Status != model.StatusActive {
		return false
	}
	have, ok := tierRank[state.Tier]
	if !ok {
		return false
	}
	return have >= tierRank[need]
}

// Features lists every known feature with its access decision for state.
func Features(state State) map[Feature]bool {
	out := make(map[Feature]bool, len(requiredTier))
	for f := range requiredTier {
		out[f] = HasAccess(f, state)
	}
	return out
}

// RequiredTier returns the minimum tier for feature.
func RequiredTier(feature Feature) (string, bool) {
	t, ok := requiredTier[feature]
	return t, ok
}
