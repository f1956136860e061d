package usecases

import (
	"context"
	"fmt"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/order"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// UpgradeConfirmCommand turns a quote into a pending upgrade order.
type UpgradeConfirmCommand struct {
	UserID        uint
	EntitlementID uint
	PlanID        uint
}

// UpgradeConfirmResult contains the pending upgrade order
type UpgradeConfirmResult struct {
	OrderID       uint
	OrderNo       string
	Amount        int64
	ResidualValue int64
	PayExpireAt   int64
}

// UpgradeConfirmUseCase re-prices the upgrade and creates a pending upgrade
// order for the difference. The current group's entitlements are untouched
// until the order is paid and a later settlement reconciles them; paying the
// order grants the target plan like any purchase.
type UpgradeConfirmUseCase struct {
	previewUseCase *UpgradePreviewUseCase
	planRepo       catalog.PlanRepository
	orderRepo      order.Repository
	logger         logger.Interface
}

// NewUpgradeConfirmUseCase creates a new instance of UpgradeConfirmUseCase
func NewUpgradeConfirmUseCase(
	previewUseCase *UpgradePreviewUseCase,
	planRepo catalog.PlanRepository,
	orderRepo order.Repository,
	logger logger.Interface,
) *UpgradeConfirmUseCase {
	return &UpgradeConfirmUseCase{
		previewUseCase: previewUseCase,
		planRepo:       planRepo,
		orderRepo:      orderRepo,
		logger:         logger,
	}
}

// Execute creates the pending upgrade order.
func (uc *UpgradeConfirmUseCase) Execute(ctx context.Context, cmd UpgradeConfirmCommand) (*UpgradeConfirmResult, error) {
	pending, err := uc.orderRepo.HasPendingByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.NewConflictError("you already have a pending order")
	}

	quote, err := uc.previewUseCase.quote(ctx, cmd.UserID, cmd.EntitlementID, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	remark := fmt.Sprintf("upgrade from level %d, residual %d", quote.CurrentLevel, quote.ResidualValue)
	o, err := order.NewOrder(cmd.UserID, cmd.PlanID, order.TypeUpgrade, quote.NeedPay,
		plan.DurationDays(), plan.TrafficLimitBytes(), remark)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	uc.logger.Infow("upgrade order created",
		"order_id", o.ID(),
		"order_no", o.OrderNo(),
		"user_id", cmd.UserID,
		"plan_id", cmd.PlanID,
		"need_pay", quote.NeedPay,
		"residual", quote.ResidualValue,
	)

	return &UpgradeConfirmResult{
		OrderID:       o.ID(),
		OrderNo:       o.OrderNo(),
		Amount:        o.Amount(),
		ResidualValue: quote.ResidualValue,
		PayExpireAt:   o.PayExpireAt().Unix(),
	}, nil
}
