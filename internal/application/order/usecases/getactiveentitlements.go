package usecases

import (
	"context"

	"meridian/internal/domain/entitlement"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// GetActiveEntitlementsCommand lists a user's active subscriptions.
type GetActiveEntitlementsCommand struct {
	UserID uint
}

// EntitlementView is the read model for one ledger row.
type EntitlementView struct {
	ID              uint   `json:"id"`
	GroupID         uint   `json:"group_id"`
	PlanID          uint   `json:"plan_id"`
	Status          string `json:"status"`
	ServiceStartAt  int64  `json:"service_start_at"`
	ServiceExpireAt int64  `json:"service_expire_at"`
	TrafficTotal    int64  `json:"traffic_total_bytes"`
	TrafficUsed     int64  `json:"traffic_used_bytes"`
	RemainingBytes  int64  `json:"remaining_bytes"`
	RemainingDays   int    `json:"remaining_days"`
	Unlimited       bool   `json:"unlimited"`
	TotalAmount     int64  `json:"total_amount"`
}

// GetActiveEntitlementsResult contains the active rows
type GetActiveEntitlementsResult struct {
	Entitlements []EntitlementView
}

// GetActiveEntitlementsUseCase lists the active ledger rows with their
// remaining balances.
type GetActiveEntitlementsUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewGetActiveEntitlementsUseCase creates a new instance of GetActiveEntitlementsUseCase
func NewGetActiveEntitlementsUseCase(entitlementRepo entitlement.Repository, logger logger.Interface) *GetActiveEntitlementsUseCase {
	return &GetActiveEntitlementsUseCase{entitlementRepo: entitlementRepo, logger: logger}
}

// Execute lists the rows.
func (uc *GetActiveEntitlementsUseCase) Execute(ctx context.Context, cmd GetActiveEntitlementsCommand) (*GetActiveEntitlementsResult, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.NewValidationError("user_id is required")
	}

	ents, err := uc.entitlementRepo.ListActiveByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	views := make([]EntitlementView, 0, len(ents))
	for _, ent := range ents {
		views = append(views, EntitlementView{
			ID:              ent.ID(),
			GroupID:         ent.GroupID(),
			PlanID:          ent.PlanID(),
			Status:          string(ent.Status()),
			ServiceStartAt:  ent.ServiceStartAt().Unix(),
			ServiceExpireAt: ent.ServiceExpireAt().Unix(),
			TrafficTotal:    ent.TrafficTotalBytes(),
			TrafficUsed:     ent.TrafficUsedBytes(),
			RemainingBytes:  ent.RemainingBytes(),
			RemainingDays:   ent.RemainingDays(now),
			Unlimited:       ent.IsUnlimited(),
			TotalAmount:     ent.TotalAmount(),
		})
	}
	return &GetActiveEntitlementsResult{Entitlements: views}, nil
}
