package entitlement

import (
	"testing"

	"optikcoin/internal/model"
)

func TestHasAccess(t *testing.T) {
	active := func(tier string) State { return State{Tier: tier, Status: model.StatusActive} }

	cases := []struct {
		name    string
		feature Feature
		state   State
		want    bool
	}{
		{"free feature for inactive free user", FeatureViewCharts, State{Tier: model.TierFree, Status: model.StatusInactive}, true},
		{"pro feature for free tier", FeatureCreateToken, active(model.TierFree), false},
		{"pro feature for pro tier", FeatureCreateToken, active(model.TierProCreator), true},
		{"pro feature for ultimate tier", FeatureAIChat, active(model.TierUltimateBundle), true},
		{"ultimate feature for pro tier", FeatureSecurityScan, active(model.TierProCreator), false},
		{"ultimate feature for ultimate tier", FeatureMiningBoost, active(model.TierUltimateBundle), true},
		{"past due loses paid features", FeatureCreateToken, State{Tier: model.TierProCreator, Status: model.StatusPastDue}, false},
		{"cancelled loses paid features", FeatureMining, State{Tier: model.TierUltimateBundle, Status: model.StatusCancelled}, false},
		{"unknown feature", Feature("teleport"), active(model.TierUltimateBundle), false},
		{"unknown tier", FeatureCreateToken, active("platinum"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasAccess(tc.feature, tc.state); got != tc.want {
				t.Fatalf("HasAccess(%s, %+v) = %v, want %v", tc.feature, tc.state, got, tc.want)
			}
		})
	}
}

func TestStateOfNilProfile(t *testing.T) {
	s := StateOf(nil)
	if s.Tier != model.TierFree || s.Status != model.StatusInactive {
		t.Fatalf("unexpected state for nil profile: %+v", s)
	}
}

func TestFeaturesCoversTable(t *testing.T) {
	got := Features(State{Tier: model.TierProCreator, Status: model.StatusActive})
	if len(got) != len(requiredTier) {
		t.Fatalf("expected %d features, got %d", len(requiredTier), len(got))
	}
	if !got[FeatureCreateToken] || got[FeatureSecurityScan] {
		t.Fatalf("unexpected access map for pro creator: %v", got)
	}
}

func TestRequiredTier(t *testing.T) {
	if tier, ok := RequiredTier(FeatureMining); !ok || tier != model.TierProCreator {
		t.Fatalf("mining = %q, %v", tier, ok)
	}
	if _, ok := RequiredTier("teleport"); ok {
		t.Fatal("unknown feature should not resolve")
	}
}
