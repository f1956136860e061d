package usecases

import (
	"context"
	"errors"
	"fmt"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/entitlement"
	"meridian/internal/shared/logger"
)

// GrantEntitlementCommand represents a paid order being applied to the ledger.
type GrantEntitlementCommand struct {
	UserID  uint
	PlanID  uint
	OrderID uint
	Amount  int64
}

// GrantEntitlementResult contains the result of the grant
type GrantEntitlementResult struct {
	EntitlementID uint
	Stacked       bool
}

// GrantEntitlementUseCase upserts the entitlement ledger for a purchase.
// There is at most one active row per (user, group, plan): a repeat purchase
// stacks onto the existing row, extending the expiry and accumulating traffic
// and amount. The usecase runs in the caller's transaction.
type GrantEntitlementUseCase struct {
	entitlementRepo entitlement.Repository
	planRepo        catalog.PlanRepository
	logger          logger.Interface
}

// NewGrantEntitlementUseCase creates a new instance of GrantEntitlementUseCase
func NewGrantEntitlementUseCase(
	entitlementRepo entitlement.Repository,
	planRepo catalog.PlanRepository,
	logger logger.Interface,
) *GrantEntitlementUseCase {
	return &GrantEntitlementUseCase{
		entitlementRepo: entitlementRepo,
		planRepo:        planRepo,
		logger:          logger,
	}
}

// Execute applies the grant.
func (uc *GrantEntitlementUseCase) Execute(ctx context.Context, cmd GrantEntitlementCommand) (*GrantEntitlementResult, error) {
	if cmd.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if cmd.PlanID == 0 {
		return nil, fmt.Errorf("plan_id is required")
	}

	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	now := nowUTC()

	existing, err := uc.entitlementRepo.GetActiveByUserGroupPlan(ctx, cmd.UserID, plan.GroupID(), cmd.PlanID)
	if err != nil && !errors.Is(err, entitlement.ErrEntitlementNotFound) {
		return nil, err
	}

	if existing != nil {
		if err := existing.Stack(plan.Duration(), plan.TrafficLimitBytes(), cmd.Amount, cmd.OrderID, now); err != nil {
			return nil, err
		}
		if err := uc.entitlementRepo.Update(ctx, existing); err != nil {
			return nil, err
		}

		uc.logger.Infow("entitlement stacked",
			"entitlement_id", existing.ID(),
			"user_id", cmd.UserID,
			"plan_id", cmd.PlanID,
			"order_id", cmd.OrderID,
			"service_expire_at", existing.ServiceExpireAt(),
		)
		return &GrantEntitlementResult{EntitlementID: existing.ID(), Stacked: true}, nil
	}

	ent, err := entitlement.NewEntitlement(
		cmd.UserID,
		plan.GroupID(),
		cmd.PlanID,
		now,
		now.Add(plan.Duration()),
		plan.TrafficLimitBytes(),
		cmd.Amount,
		cmd.OrderID,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.entitlementRepo.Create(ctx, ent); err != nil {
		return nil, err
	}

	uc.logger.Infow("entitlement granted",
		"entitlement_id", ent.ID(),
		"user_id", cmd.UserID,
		"plan_id", cmd.PlanID,
		"order_id", cmd.OrderID,
		"service_expire_at", ent.ServiceExpireAt(),
	)
	return &GrantEntitlementResult{EntitlementID: ent.ID(), Stacked: false}, nil
}
