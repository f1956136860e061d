package usecases

import (
	"context"
	"fmt"

	"meridian/internal/domain/entitlement"
	"meridian/internal/shared/logger"
)

// ActivePlanIDsCommand resolves the plan set a user may currently use.
type ActivePlanIDsCommand struct {
	UserID uint
}

// ActivePlanIDsResult contains the resolved plan ids
type ActivePlanIDsResult struct {
	PlanIDs []uint
}

// ActivePlanIDsUseCase resolves the user's active plan set from usable
// entitlements. Exclusive groups collapse to the single plan of the
// highest-level exclusive holding (latest expiry breaks ties); non-exclusive
// groups contribute every plan they hold.
type ActivePlanIDsUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewActivePlanIDsUseCase creates a new instance of ActivePlanIDsUseCase
func NewActivePlanIDsUseCase(
	entitlementRepo entitlement.Repository,
	logger logger.Interface,
) *ActivePlanIDsUseCase {
	return &ActivePlanIDsUseCase{
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// Execute resolves the active plan set.
func (uc *ActivePlanIDsUseCase) Execute(ctx context.Context, cmd ActivePlanIDsCommand) (*ActivePlanIDsResult, error) {
	if cmd.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}

	holdings, err := uc.entitlementRepo.ListActiveHoldings(ctx, cmd.UserID, nowUTC())
	if err != nil {
		return nil, err
	}

	// Holdings arrive ordered group level desc, service expiry desc, so the
	// first exclusive holding is the winner among exclusive groups.
	planIDs := make([]uint, 0, len(holdings))
	seen := make(map[uint]bool, len(holdings))
	exclusiveResolved := false
	for _, h := range holdings {
		if h.GroupExclusive {
			if exclusiveResolved {
				continue
			}
			exclusiveResolved = true
		}
		if seen[h.PlanID] {
			continue
		}
		seen[h.PlanID] = true
		planIDs = append(planIDs, h.PlanID)
	}

	return &ActivePlanIDsResult{PlanIDs: planIDs}, nil
}
