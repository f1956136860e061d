package usecases

import (
	"context"
	"errors"
	"fmt"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/order"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// UpgradePreviewCommand prices an upgrade of one active entitlement into a
// higher level group.
type UpgradePreviewCommand struct {
	UserID        uint
	EntitlementID uint
	PlanID        uint
}

// UpgradePreviewResult contains the upgrade quote
type UpgradePreviewResult struct {
	EntitlementID  uint
	CurrentGroupID uint
	CurrentLevel   int
	TargetGroupID  uint
	TargetLevel    int
	TargetPrice    int64
	ResidualValue  int64
	NeedPay        int64
}

// UpgradePreviewUseCase quotes an upgrade. The residual value is the
// cumulative amount paid into the current group scaled by the unused share of
// the target entitlement's traffic allowance, never exceeding the amount
// paid. The quote is the target plan price minus that residual. Pricing is
// strictly traffic-based; an entitlement without a metered allowance cannot
// be quoted.
type UpgradePreviewUseCase struct {
	planRepo        catalog.PlanRepository
	groupRepo       catalog.PlanGroupRepository
	entitlementRepo entitlement.Repository
	orderRepo       order.Repository
	logger          logger.Interface
}

// NewUpgradePreviewUseCase creates a new instance of UpgradePreviewUseCase
func NewUpgradePreviewUseCase(
	planRepo catalog.PlanRepository,
	groupRepo catalog.PlanGroupRepository,
	entitlementRepo entitlement.Repository,
	orderRepo order.Repository,
	logger logger.Interface,
) *UpgradePreviewUseCase {
	return &UpgradePreviewUseCase{
		planRepo:        planRepo,
		groupRepo:       groupRepo,
		entitlementRepo: entitlementRepo,
		orderRepo:       orderRepo,
		logger:          logger,
	}
}

// Execute computes the quote.
func (uc *UpgradePreviewUseCase) Execute(ctx context.Context, cmd UpgradePreviewCommand) (*UpgradePreviewResult, error) {
	return uc.quote(ctx, cmd.UserID, cmd.EntitlementID, cmd.PlanID)
}

func (uc *UpgradePreviewUseCase) quote(ctx context.Context, userID, entitlementID, planID uint) (*UpgradePreviewResult, error) {
	if userID == 0 {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	if entitlementID == 0 {
		return nil, apperrors.NewValidationError("entitlement_id is required")
	}
	if planID == 0 {
		return nil, apperrors.NewValidationError("plan_id is required")
	}

	plan, err := uc.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		return nil, err
	}
	targetGroup, err := uc.groupRepo.GetByID(ctx, plan.GroupID())
	if err != nil {
		return nil, err
	}
	if !plan.IsEnabled() || !plan.IsPublic() || !targetGroup.IsEnabled() || !targetGroup.IsPublic() {
		return nil, apperrors.NewNotFoundError("plan not available")
	}

	ent, err := uc.entitlementRepo.GetByID(ctx, entitlementID)
	if err != nil {
		if errors.Is(err, entitlement.ErrEntitlementNotFound) {
			return nil, apperrors.NewNotFoundError("entitlement not found")
		}
		return nil, err
	}
	if ent.UserID() != userID {
		return nil, apperrors.NewNotFoundError("entitlement not found")
	}
	if ent.Status() != entitlement.StatusActive {
		return nil, apperrors.NewConflictError("entitlement is not active")
	}

	currentGroup, err := uc.groupRepo.GetByID(ctx, ent.GroupID())
	if err != nil {
		return nil, err
	}
	if targetGroup.Level() <= currentGroup.Level() {
		return nil, apperrors.NewConflictError("upgrade target must be a higher level",
			fmt.Sprintf("current level %d, requested level %d", currentGroup.Level(), targetGroup.Level()))
	}

	residual, err := uc.residualValue(ctx, userID, ent)
	if err != nil {
		return nil, err
	}

	needPay := plan.Price() - residual
	if needPay < 0 {
		return nil, apperrors.NewValidationError("residual value exceeds the target plan price",
			fmt.Sprintf("residual %d, target price %d", residual, plan.Price()))
	}

	return &UpgradePreviewResult{
		EntitlementID:  ent.ID(),
		CurrentGroupID: ent.GroupID(),
		CurrentLevel:   currentGroup.Level(),
		TargetGroupID:  targetGroup.ID(),
		TargetLevel:    targetGroup.Level(),
		TargetPrice:    plan.Price(),
		ResidualValue:  residual,
		NeedPay:        needPay,
	}, nil
}

// residualValue prices the unused share of the entitlement's traffic
// allowance. The base is the cumulative amount paid into the group, falling
// back to the latest paid order in the group when the ledger carries no
// amount.
func (uc *UpgradePreviewUseCase) residualValue(ctx context.Context, userID uint, ent *entitlement.Entitlement) (int64, error) {
	total := ent.TrafficTotalBytes()
	if total <= 0 {
		return 0, apperrors.NewValidationError("entitlement has no metered traffic allowance to price")
	}

	base, err := uc.entitlementRepo.SumGroupAmount(ctx, userID, ent.GroupID())
	if err != nil {
		return 0, err
	}
	if base <= 0 {
		latest, err := uc.orderRepo.GetLatestPaidByUserGroup(ctx, userID, ent.GroupID())
		if err != nil {
			if errors.Is(err, order.ErrOrderNotFound) {
				return 0, nil
			}
			return 0, err
		}
		base = latest.Amount()
		if base < 0 {
			base = 0
		}
	}
	if base == 0 {
		return 0, nil
	}

	remaining := ent.RemainingBytes()
	if remaining <= 0 {
		return 0, nil
	}
	if remaining > total {
		remaining = total
	}

	residual := int64(float64(base) * (float64(remaining) / float64(total)))
	if residual > base {
		residual = base
	}
	return residual, nil
}
