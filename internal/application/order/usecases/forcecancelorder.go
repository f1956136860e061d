package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/order"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// ForceCancelOrderCommand cancels any non-cancelled order. Admin only; paying
// out or clawing back an already-granted entitlement is a separate revoke.
type ForceCancelOrderCommand struct {
	OrderID uint
	Remark  string
}

// ForceCancelOrderResult contains the cancelled order
type ForceCancelOrderResult struct {
	OrderID uint
	OrderNo string
	Status  string
}

// ForceCancelOrderUseCase is the admin override for stuck orders.
type ForceCancelOrderUseCase struct {
	orderRepo order.Repository
	logger    logger.Interface
}

// NewForceCancelOrderUseCase creates a new instance of ForceCancelOrderUseCase
func NewForceCancelOrderUseCase(orderRepo order.Repository, logger logger.Interface) *ForceCancelOrderUseCase {
	return &ForceCancelOrderUseCase{orderRepo: orderRepo, logger: logger}
}

// Execute force-cancels the order.
func (uc *ForceCancelOrderUseCase) Execute(ctx context.Context, cmd ForceCancelOrderCommand) (*ForceCancelOrderResult, error) {
	if cmd.OrderID == 0 {
		return nil, apperrors.NewValidationError("order_id is required")
	}

	o, err := uc.orderRepo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, apperrors.NewNotFoundError("order not found")
		}
		return nil, err
	}

	if err := o.ForceCancel(); err != nil {
		return nil, apperrors.NewConflictError("order is already cancelled")
	}
	if err := uc.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	uc.logger.Warnw("order force cancelled",
		"order_id", o.ID(), "order_no", o.OrderNo(), "user_id", o.UserID(), "remark", cmd.Remark)
	return &ForceCancelOrderResult{OrderID: o.ID(), OrderNo: o.OrderNo(), Status: string(o.Status())}, nil
}
