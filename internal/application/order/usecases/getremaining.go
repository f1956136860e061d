package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/entitlement"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// GetRemainingCommand reads one entitlement's remaining balance. When AsAdmin
// is false the row must belong to UserID.
type GetRemainingCommand struct {
	UserID        uint
	EntitlementID uint
	AsAdmin       bool
}

// GetRemainingResult contains the balance
type GetRemainingResult struct {
	EntitlementID  uint
	Status         string
	RemainingDays  int
	RemainingBytes int64
	Unlimited      bool
	CanUnsubscribe bool
}

// GetRemainingUseCase answers the pre-unsubscribe balance question.
type GetRemainingUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewGetRemainingUseCase creates a new instance of GetRemainingUseCase
func NewGetRemainingUseCase(entitlementRepo entitlement.Repository, logger logger.Interface) *GetRemainingUseCase {
	return &GetRemainingUseCase{entitlementRepo: entitlementRepo, logger: logger}
}

// Execute reads the balance.
func (uc *GetRemainingUseCase) Execute(ctx context.Context, cmd GetRemainingCommand) (*GetRemainingResult, error) {
	if cmd.EntitlementID == 0 {
		return nil, apperrors.NewValidationError("entitlement_id is required")
	}

	ent, err := uc.entitlementRepo.GetByID(ctx, cmd.EntitlementID)
	if err != nil {
		if errors.Is(err, entitlement.ErrEntitlementNotFound) {
			return nil, apperrors.NewNotFoundError("entitlement not found")
		}
		return nil, err
	}
	if !cmd.AsAdmin && ent.UserID() != cmd.UserID {
		return nil, apperrors.NewNotFoundError("entitlement not found")
	}

	now := nowUTC()
	return &GetRemainingResult{
		EntitlementID:  ent.ID(),
		Status:         string(ent.Status()),
		RemainingDays:  ent.RemainingDays(now),
		RemainingBytes: ent.RemainingBytes(),
		Unlimited:      ent.IsUnlimited(),
		CanUnsubscribe: ent.IsUsable(now),
	}, nil
}
