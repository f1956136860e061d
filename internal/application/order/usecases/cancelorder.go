package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/order"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// CancelOrderCommand cancels a user's own pending order.
type CancelOrderCommand struct {
	OrderID uint
	UserID  uint
}

// CancelOrderResult contains the cancelled order
type CancelOrderResult struct {
	OrderID uint
	OrderNo string
	Status  string
}

// CancelOrderUseCase cancels a pending order on the owner's request.
type CancelOrderUseCase struct {
	orderRepo order.Repository
	logger    logger.Interface
}

// NewCancelOrderUseCase creates a new instance of CancelOrderUseCase
func NewCancelOrderUseCase(orderRepo order.Repository, logger logger.Interface) *CancelOrderUseCase {
	return &CancelOrderUseCase{orderRepo: orderRepo, logger: logger}
}

// Execute cancels the order.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderCommand) (*CancelOrderResult, error) {
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
	if o.UserID() != cmd.UserID {
		return nil, apperrors.NewNotFoundError("order not found")
	}

	if err := o.Cancel(); err != nil {
		if errors.Is(err, order.ErrOrderAlreadyPaid) {
			return nil, apperrors.NewConflictError("order is already paid")
		}
		if errors.Is(err, order.ErrOrderCancelled) {
			return nil, apperrors.NewConflictError("order is already cancelled")
		}
		return nil, err
	}
	if err := uc.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	uc.logger.Infow("order cancelled", "order_id", o.ID(), "order_no", o.OrderNo(), "user_id", cmd.UserID)
	return &CancelOrderResult{OrderID: o.ID(), OrderNo: o.OrderNo(), Status: string(o.Status())}, nil
}
