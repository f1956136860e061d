package usecases

import (
	"context"
	"errors"
	"fmt"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/order"
	"meridian/internal/domain/user"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// UnsubscribeCommand deducts service from an entitlement. DeductDays and
// DeductBytes remove remaining service, DeductAmount reduces the recorded
// paid amount. FullRefund cancels the row outright instead of deducting.
type UnsubscribeCommand struct {
	UserID        uint
	EntitlementID uint
	DeductDays    int
	DeductBytes   int64
	DeductAmount  int64
	Reason        string
	FullRefund    bool
	AsAdmin       bool
}

// UnsubscribeResult contains the unsubscribe record
type UnsubscribeResult struct {
	OrderID         uint
	OrderNo         string
	EntitlementID   uint
	Status          string
	RemovedFromPlan bool
}

// UnsubscribeUseCase performs a refund-style deduction: it validates the
// deduction against the entitlement's remaining balance, writes a paid
// unsubscribe order carrying the deltas as negative values, applies the
// deduction to the ledger, and decrements the user's compat counters, all in
// one transaction.
type UnsubscribeUseCase struct {
	orderRepo       order.Repository
	userRepo        user.Repository
	entitlementRepo entitlement.Repository
	revokeUseCase   *entitlementuc.RevokeEntitlementUseCase
	txManager       *db.TransactionManager
	logger          logger.Interface
}

// NewUnsubscribeUseCase creates a new instance of UnsubscribeUseCase
func NewUnsubscribeUseCase(
	orderRepo order.Repository,
	userRepo user.Repository,
	entitlementRepo entitlement.Repository,
	revokeUseCase *entitlementuc.RevokeEntitlementUseCase,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *UnsubscribeUseCase {
	return &UnsubscribeUseCase{
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		entitlementRepo: entitlementRepo,
		revokeUseCase:   revokeUseCase,
		txManager:       txManager,
		logger:          logger,
	}
}

// Execute applies the unsubscribe.
func (uc *UnsubscribeUseCase) Execute(ctx context.Context, cmd UnsubscribeCommand) (*UnsubscribeResult, error) {
	if cmd.EntitlementID == 0 {
		return nil, apperrors.NewValidationError("entitlement_id is required")
	}
	if cmd.DeductDays < 0 || cmd.DeductBytes < 0 || cmd.DeductAmount < 0 {
		return nil, apperrors.NewValidationError("deductions cannot be negative")
	}
	if !cmd.FullRefund && cmd.DeductDays == 0 && cmd.DeductBytes == 0 && cmd.DeductAmount == 0 {
		return nil, apperrors.NewValidationError("nothing to deduct")
	}

	var result UnsubscribeResult
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		ent, err := uc.entitlementRepo.GetByID(txCtx, cmd.EntitlementID)
		if err != nil {
			if errors.Is(err, entitlement.ErrEntitlementNotFound) {
				return apperrors.NewNotFoundError("entitlement not found")
			}
			return err
		}
		if !cmd.AsAdmin && ent.UserID() != cmd.UserID {
			return apperrors.NewNotFoundError("entitlement not found")
		}
		if ent.Status() == entitlement.StatusCancelled {
			return apperrors.NewConflictError("entitlement is already cancelled")
		}

		now := nowUTC()
		if !cmd.FullRefund {
			if remaining := ent.RemainingDays(now); cmd.DeductDays > remaining {
				return apperrors.NewValidationError("deduct_days exceeds remaining days",
					fmt.Sprintf("at most %d days can be deducted", remaining))
			}
			if remaining := ent.RemainingBytes(); remaining != entitlement.UnlimitedTraffic && cmd.DeductBytes > remaining {
				return apperrors.NewValidationError("deduct_bytes exceeds remaining traffic",
					fmt.Sprintf("at most %d bytes can be deducted", remaining))
			}
			if cmd.DeductAmount > ent.TotalAmount() {
				return apperrors.NewValidationError("deduct_amount exceeds paid amount",
					fmt.Sprintf("at most %d can be deducted", ent.TotalAmount()))
			}
		}

		days := cmd.DeductDays
		bytes := cmd.DeductBytes
		amount := cmd.DeductAmount
		if cmd.FullRefund {
			days = ent.RemainingDays(now)
			if rb := ent.RemainingBytes(); rb != entitlement.UnlimitedTraffic {
				bytes = rb
			} else {
				bytes = 0
			}
			amount = ent.TotalAmount()
		}

		o, err := order.NewOrder(ent.UserID(), ent.PlanID(), order.TypeUnsubscribe,
			-amount, -days, -bytes, cmd.Reason)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}
		if err := o.MarkPaid("refund", now); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		revoked, err := uc.revokeUseCase.Execute(txCtx, entitlementuc.RevokeEntitlementCommand{
			EntitlementID: ent.ID(),
			Days:          days,
			TrafficBytes:  bytes,
			DeductAmount:  amount,
			Reason:        cmd.Reason,
			FullRefund:    cmd.FullRefund,
		})
		if err != nil {
			return err
		}

		u, err := uc.userRepo.GetByID(txCtx, ent.UserID())
		if err != nil {
			return err
		}
		if bytes > 0 {
			u.AddCompatTraffic(-bytes)
		}
		if err := uc.userRepo.Update(txCtx, u); err != nil {
			return err
		}

		result = UnsubscribeResult{
			OrderID:         o.ID(),
			OrderNo:         o.OrderNo(),
			EntitlementID:   ent.ID(),
			Status:          revoked.Status,
			RemovedFromPlan: revoked.RemovedFromPlan,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("entitlement unsubscribed",
		"order_id", result.OrderID,
		"entitlement_id", result.EntitlementID,
		"status", result.Status,
		"full_refund", cmd.FullRefund,
	)
	return &result, nil
}
