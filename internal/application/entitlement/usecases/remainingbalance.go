package usecases

import (
	"context"
	"fmt"

	"meridian/internal/domain/entitlement"
	"meridian/internal/shared/logger"
)

// RemainingBalanceCommand queries what is left on one ledger row.
type RemainingBalanceCommand struct {
	EntitlementID uint
}

// RemainingBalanceResult contains the remaining balance. RemainingBytes is -1
// for unlimited entitlements.
type RemainingBalanceResult struct {
	EntitlementID  uint
	Status         string
	RemainingDays  int
	RemainingBytes int64
	Unlimited      bool
	CanUnsubscribe bool
}

// RemainingBalanceUseCase computes the refundable remainder of an entitlement.
type RemainingBalanceUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewRemainingBalanceUseCase creates a new instance of RemainingBalanceUseCase
func NewRemainingBalanceUseCase(
	entitlementRepo entitlement.Repository,
	logger logger.Interface,
) *RemainingBalanceUseCase {
	return &RemainingBalanceUseCase{
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// Execute computes the balance.
func (uc *RemainingBalanceUseCase) Execute(ctx context.Context, cmd RemainingBalanceCommand) (*RemainingBalanceResult, error) {
	if cmd.EntitlementID == 0 {
		return nil, fmt.Errorf("entitlement_id is required")
	}

	ent, err := uc.entitlementRepo.GetByID(ctx, cmd.EntitlementID)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	return &RemainingBalanceResult{
		EntitlementID:  ent.ID(),
		Status:         ent.Status().String(),
		RemainingDays:  ent.RemainingDays(now),
		RemainingBytes: ent.RemainingBytes(),
		Unlimited:      ent.IsUnlimited(),
		CanUnsubscribe: ent.Status() == entitlement.StatusActive && ent.ServiceExpireAt().After(now),
	}, nil
}
