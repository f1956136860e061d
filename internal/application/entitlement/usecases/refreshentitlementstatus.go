package usecases

import (
	"context"

	"meridian/internal/domain/entitlement"
	"meridian/internal/shared/logger"
)

// RefreshEntitlementStatusResult reports how many rows each sweep settled.
type RefreshEntitlementStatusResult struct {
	Expired   int64
	Exhausted int64
}

// RefreshEntitlementStatusUseCase settles lazily-tracked statuses with pure
// conditional updates: active rows past their expiry become expired, finite
// rows at their cap become exhausted. Both updates are idempotent and safe
// under concurrent grants and settlements, so callers run this
// opportunistically before freshness-dependent reads.
type RefreshEntitlementStatusUseCase struct {
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewRefreshEntitlementStatusUseCase creates a new instance of RefreshEntitlementStatusUseCase
func NewRefreshEntitlementStatusUseCase(
	entitlementRepo entitlement.Repository,
	logger logger.Interface,
) *RefreshEntitlementStatusUseCase {
	return &RefreshEntitlementStatusUseCase{
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// Execute runs both sweeps.
func (uc *RefreshEntitlementStatusUseCase) Execute(ctx context.Context) (*RefreshEntitlementStatusResult, error) {
	expired, err := uc.entitlementRepo.MarkExpired(ctx, nowUTC())
	if err != nil {
		return nil, err
	}
	exhausted, err := uc.entitlementRepo.MarkExhausted(ctx)
	if err != nil {
		return nil, err
	}

	if expired > 0 || exhausted > 0 {
		uc.logger.Infow("entitlement statuses refreshed",
			"expired", expired,
			"exhausted", exhausted,
		)
	}
	return &RefreshEntitlementStatusResult{Expired: expired, Exhausted: exhausted}, nil
}
