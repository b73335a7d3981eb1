package service

import (
	"context"
	"fmt"

	"optikcoin/internal/entitlement"
	"optikcoin/internal/repository"
)

type Entitlements struct {
	State         entitlement.State
	Features      map[entitlement.Feature]bool
	RequiredTiers map[entitlement.Feature]string
}

// EntitlementService reports the cached feature map for a user. The result
// is for client display only.
type EntitlementService interface {
	ForUser(ctx context.Context, userID string) (*Entitlements, error)
}

type entitlementService struct {
	users repository.UserRepository
}

func NewEntitlementService(users repository.UserRepository) EntitlementService {
	return &entitlementService{users: users}
}

func (s *entitlementService) ForUser(ctx context.Context, userID string) (*Entitlements, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	state := entitlement.StateOf(user)
	features := entitlement.Features(state)
	required := make(map[entitlement.Feature]string, len(features))
	for f := range features {
		if tier, ok := entitlement.RequiredTier(f); ok {
			required[f] = tier
		}
	}
	return &Entitlements{State: state, Features: features, RequiredTiers: required}, nil
}
