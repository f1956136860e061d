package usecases

import (
	"context"
	"fmt"

	"meridian/internal/domain/entitlement"
	"meridian/internal/shared/logger"
)

// RevokeEntitlementCommand withdraws value from a ledger row. FullRefund
// cancels the row outright, still deducting the passed bytes and amount;
// otherwise days and bytes are deducted and the status recomputed. Callers
// validate deductions against the remaining balance first; the ledger itself
// does not clamp.
type RevokeEntitlementCommand struct {
	EntitlementID uint
	Days          int
	TrafficBytes  int64
	DeductAmount  int64
	Reason        string
	FullRefund    bool
}

// RevokeEntitlementResult contains the result of the revoke
type RevokeEntitlementResult struct {
	EntitlementID   uint
	Status          string
	RemovedFromPlan bool
}

// RevokeEntitlementUseCase applies unsubscribe deductions to the ledger.
// Runs in the caller's transaction.
type RevokeEntitlementUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewRevokeEntitlementUseCase creates a new instance of RevokeEntitlementUseCase
func NewRevokeEntitlementUseCase(
	entitlementRepo entitlement.Repository,
	logger logger.Interface,
) *RevokeEntitlementUseCase {
	return &RevokeEntitlementUseCase{
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// Execute applies the revoke.
func (uc *RevokeEntitlementUseCase) Execute(ctx context.Context, cmd RevokeEntitlementCommand) (*RevokeEntitlementResult, error) {
	if cmd.EntitlementID == 0 {
		return nil, fmt.Errorf("entitlement_id is required")
	}

	ent, err := uc.entitlementRepo.GetByID(ctx, cmd.EntitlementID)
	if err != nil {
		return nil, err
	}

	now := nowUTC()

	if cmd.FullRefund {
		if err := ent.Cancel(cmd.Reason, cmd.TrafficBytes, cmd.DeductAmount, now); err != nil {
			return nil, err
		}
	} else {
		if err := ent.Deduct(cmd.Days, cmd.TrafficBytes, cmd.DeductAmount, cmd.Reason, now); err != nil {
			return nil, err
		}
	}

	if err := uc.entitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	removed := ent.Status() != entitlement.StatusActive

	uc.logger.Infow("entitlement revoked",
		"entitlement_id", ent.ID(),
		"user_id", ent.UserID(),
		"full_refund", cmd.FullRefund,
		"days", cmd.Days,
		"traffic_bytes", cmd.TrafficBytes,
		"status", ent.Status().String(),
	)

	return &RevokeEntitlementResult{
		EntitlementID:   ent.ID(),
		Status:          ent.Status().String(),
		RemovedFromPlan: removed,
	}, nil
}
