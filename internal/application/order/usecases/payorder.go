package usecases

import (
	"context"
	"errors"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/domain/order"
	"meridian/internal/domain/user"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// PayOrderCommand marks an order paid. UserID is the acting user; when
// AsAdmin is false the order must belong to them.
type PayOrderCommand struct {
	OrderID   uint
	UserID    uint
	PayMethod string
	AsAdmin   bool
}

// PayOrderResult contains the settlement outcome
type PayOrderResult struct {
	OrderID       uint
	OrderNo       string
	EntitlementID uint
	Stacked       bool
}

// PayOrderUseCase settles a pending order: the order flips to paid, the
// entitlement ledger is granted, and the user's compat counters follow, all
// in one transaction. Upgrade orders grant the target plan the same way a
// purchase does.
type PayOrderUseCase struct {
	orderRepo    order.Repository
	userRepo     user.Repository
	grantUseCase *entitlementuc.GrantEntitlementUseCase
	txManager    *db.TransactionManager
	logger       logger.Interface
}

// NewPayOrderUseCase creates a new instance of PayOrderUseCase
func NewPayOrderUseCase(
	orderRepo order.Repository,
	userRepo user.Repository,
	grantUseCase *entitlementuc.GrantEntitlementUseCase,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *PayOrderUseCase {
	return &PayOrderUseCase{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		grantUseCase: grantUseCase,
		txManager:    txManager,
		logger:       logger,
	}
}

// Execute pays the order.
func (uc *PayOrderUseCase) Execute(ctx context.Context, cmd PayOrderCommand) (*PayOrderResult, error) {
	if cmd.OrderID == 0 {
		return nil, apperrors.NewValidationError("order_id is required")
	}
	if cmd.PayMethod == "" {
		cmd.PayMethod = "manual"
	}

	var result PayOrderResult
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.GetByID(txCtx, cmd.OrderID)
		if err != nil {
			if errors.Is(err, order.ErrOrderNotFound) {
				return apperrors.NewNotFoundError("order not found")
			}
			return err
		}
		if !cmd.AsAdmin && o.UserID() != cmd.UserID {
			return apperrors.NewNotFoundError("order not found")
		}

		now := nowUTC()
		// admins settle stale orders out of band, so the window only binds
		// the order's owner
		if !cmd.AsAdmin && o.IsPayExpired(now) {
			return apperrors.NewConflictError("order payment window has expired")
		}
		if err := o.MarkPaid(cmd.PayMethod, now); err != nil {
			if errors.Is(err, order.ErrOrderAlreadyPaid) {
				return apperrors.NewConflictError("order is already paid")
			}
			if errors.Is(err, order.ErrOrderCancelled) {
				return apperrors.NewConflictError("order is cancelled")
			}
			return err
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		grant, err := uc.grantUseCase.Execute(txCtx, entitlementuc.GrantEntitlementCommand{
			UserID:  o.UserID(),
			PlanID:  o.PlanID(),
			OrderID: o.ID(),
			Amount:  o.Amount(),
		})
		if err != nil {
			return err
		}

		u, err := uc.userRepo.GetByID(txCtx, o.UserID())
		if err != nil {
			return err
		}
		if o.TrafficBytes() > 0 {
			u.AddCompatTraffic(o.TrafficBytes())
		}
		u.ExtendCompatExpiry(now.AddDate(0, 0, o.DurationDays()))
		if err := uc.userRepo.Update(txCtx, u); err != nil {
			return err
		}

		result = PayOrderResult{
			OrderID:       o.ID(),
			OrderNo:       o.OrderNo(),
			EntitlementID: grant.EntitlementID,
			Stacked:       grant.Stacked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("order paid",
		"order_id", result.OrderID,
		"order_no", result.OrderNo,
		"entitlement_id", result.EntitlementID,
		"pay_method", cmd.PayMethod,
	)
	return &result, nil
}
