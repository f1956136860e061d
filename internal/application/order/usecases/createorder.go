package usecases

import (
	"context"
	"errors"
	"fmt"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/domain/catalog"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/order"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// CreateOrderCommand represents a purchase request.
type CreateOrderCommand struct {
	UserID uint
	PlanID uint
	Remark string

	// AsAdmin bypasses the catalog visibility and purchase guards and marks
	// the order paid at zero amount in the same transaction.
	AsAdmin bool
}

// CreateOrderResult contains the created order
type CreateOrderResult struct {
	OrderID     uint
	OrderNo     string
	Amount      int64
	Status      string
	PayExpireAt int64
}

// CreateOrderUseCase creates a purchase order. Regular users buy enabled
// public plans, may hold at most one pending order, cannot buy into a group
// below their highest active level, and cannot buy into a second exclusive
// group while holding an exclusive one. Admin grants skip the guards and are
// settled immediately at zero cost.
type CreateOrderUseCase struct {
	orderRepo       order.Repository
	planRepo        catalog.PlanRepository
	groupRepo       catalog.PlanGroupRepository
	entitlementRepo entitlement.Repository
	grantUseCase    *entitlementuc.GrantEntitlementUseCase
	txManager       *db.TransactionManager
	logger          logger.Interface
}

// NewCreateOrderUseCase creates a new instance of CreateOrderUseCase
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	planRepo catalog.PlanRepository,
	groupRepo catalog.PlanGroupRepository,
	entitlementRepo entitlement.Repository,
	grantUseCase *entitlementuc.GrantEntitlementUseCase,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo:       orderRepo,
		planRepo:        planRepo,
		groupRepo:       groupRepo,
		entitlementRepo: entitlementRepo,
		grantUseCase:    grantUseCase,
		txManager:       txManager,
		logger:          logger,
	}
}

// Execute creates the order.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	if cmd.PlanID == 0 {
		return nil, apperrors.NewValidationError("plan_id is required")
	}

	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		return nil, err
	}
	group, err := uc.groupRepo.GetByID(ctx, plan.GroupID())
	if err != nil {
		return nil, err
	}

	if !cmd.AsAdmin {
		if !plan.IsEnabled() || !plan.IsPublic() || !group.IsEnabled() || !group.IsPublic() {
			return nil, apperrors.NewNotFoundError("plan not available")
		}

		pending, err := uc.orderRepo.HasPendingByUser(ctx, cmd.UserID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, apperrors.NewConflictError("you already have a pending order")
		}

		if err := uc.checkPurchaseGuards(ctx, cmd.UserID, group); err != nil {
			return nil, err
		}
	}

	amount := plan.Price()
	if cmd.AsAdmin {
		amount = 0
	}

	o, err := order.NewOrder(cmd.UserID, cmd.PlanID, order.TypePurchase, amount,
		plan.DurationDays(), plan.TrafficLimitBytes(), cmd.Remark)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if cmd.AsAdmin {
		err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
			if err := uc.orderRepo.Create(txCtx, o); err != nil {
				return err
			}
			if err := o.MarkPaid("admin", nowUTC()); err != nil {
				return err
			}
			if err := uc.orderRepo.Update(txCtx, o); err != nil {
				return err
			}
			_, err := uc.grantUseCase.Execute(txCtx, entitlementuc.GrantEntitlementCommand{
				UserID:  cmd.UserID,
				PlanID:  cmd.PlanID,
				OrderID: o.ID(),
				Amount:  0,
			})
			return err
		})
	} else {
		err = uc.orderRepo.Create(ctx, o)
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("order created",
		"order_id", o.ID(),
		"order_no", o.OrderNo(),
		"user_id", cmd.UserID,
		"plan_id", cmd.PlanID,
		"amount", o.Amount(),
		"as_admin", cmd.AsAdmin,
	)

	return &CreateOrderResult{
		OrderID:     o.ID(),
		OrderNo:     o.OrderNo(),
		Amount:      o.Amount(),
		Status:      string(o.Status()),
		PayExpireAt: o.PayExpireAt().Unix(),
	}, nil
}

// checkPurchaseGuards enforces the level and exclusivity purchase rules
// against the user's current active holdings.
func (uc *CreateOrderUseCase) checkPurchaseGuards(ctx context.Context, userID uint, target *catalog.PlanGroup) error {
	holdings, err := uc.entitlementRepo.ListActiveHoldings(ctx, userID, nowUTC())
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		return nil
	}

	// Holdings are ordered by group level desc, so the first row carries the
	// user's highest active level.
	highest := holdings[0].GroupLevel
	if target.Level() < highest {
		return apperrors.NewConflictError("cannot purchase a lower level plan",
			fmt.Sprintf("current level %d, requested level %d", highest, target.Level()))
	}

	if target.IsExclusive() {
		for _, h := range holdings {
			if h.GroupExclusive && h.GroupID != target.ID() {
				return apperrors.NewConflictError("active exclusive plan in another group",
					"unsubscribe or upgrade before purchasing in a different exclusive group")
			}
		}
	}
	return nil
}
