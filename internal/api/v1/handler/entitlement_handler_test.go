package handler

import (
	"context"
	"net/http"
	"testing"

	"optikcoin/internal/entitlement"
	"optikcoin/internal/model"
	"optikcoin/internal/service"
)

type fakeEntitlementSvc struct{}

func (fakeEntitlementSvc) ForUser(_ context.Context, userID string) (*service.Entitlements, error) {
	if userID != "5f0c6b2e-8a4d-4c1e-9b7a-1d2e3f4a5b6c" {
		return nil, service.ErrUserNotFound
	}
	state := entitlement.State{Tier: model.TierProCreator, Status: model.StatusActive}
	return &service.Entitlements{
		State:         state,
		Features:      entitlement.Features(state),
		RequiredTiers: map[entitlement.Feature]string{entitlement.FeatureSecurityScan: model.TierUltimateBundle},
	}, nil
}

func TestEntitlementsMap(t *testing.T) {
	h := NewEntitlementHandler(fakeEntitlementSvc{}, testLogger)
	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/entitlements", "", "5f0c6b2e-8a4d-4c1e-9b7a-1d2e3f4a5b6c")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeResponse(t, rec)
	if out["tier"] != model.TierProCreator {
		t.Fatalf("tier = %v", out["tier"])
	}
	features := out["features"].(map[string]any)
	if features["create_token"] != true || features["security_scan"] != false {
		t.Fatalf("unexpected features %v", features)
	}
	required := out["required_tiers"].(map[string]any)
	if required["security_scan"] != model.TierUltimateBundle {
		t.Fatalf("unexpected required tiers %v", required)
	}
}

func TestEntitlementsUnknownUser(t *testing.T) {
	h := NewEntitlementHandler(fakeEntitlementSvc{}, testLogger)
	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/entitlements?userId=00000000-0000-4000-8000-000000000000", "", "")
	expectError(t, rec, http.StatusBadRequest, "User not found")
}

func TestEntitlementsRejectsNonUUIDQuery(t *testing.T) {
	h := NewEntitlementHandler(fakeEntitlementSvc{}, testLogger)
	rec := serve(t, h.RegisterRoutes, http.MethodGet, "/entitlements?userId=abc", "", "")
	expectError(t, rec, http.StatusBadRequest, "userId must be a valid UUID")
}
