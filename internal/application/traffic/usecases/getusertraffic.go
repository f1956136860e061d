package usecases

import (
	"context"

	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/user"
	"meridian/internal/infrastructure/cache"
	"meridian/internal/shared/biztime"
	"meridian/internal/shared/logger"
)

// GetUserTrafficCommand identifies the user whose usage to read.
type GetUserTrafficCommand struct {
	UserID uint
}

// GetUserTrafficResult aggregates ledger totals with the recent series.
type GetUserTrafficResult struct {
	UserID         uint
	TotalBytes     int64
	UsedBytes      int64
	RemainingBytes int64
	Unlimited      bool
	Series         []cache.MinutePoint
}

// MinuteSeriesReader reads the rolling per-minute usage window.
type MinuteSeriesReader interface {
	Last24h(ctx context.Context, userID uint) ([]cache.MinutePoint, error)
}

// GetUserTrafficUseCase reports a user's aggregate traffic position. Totals
// come from the active entitlement rows; the minute series comes from the
// cache and degrades to empty when the cache is unavailable.
type GetUserTrafficUseCase struct {
	userRepo        user.Repository
	entitlementRepo entitlement.Repository
	seriesReader    MinuteSeriesReader
	logger          logger.Interface
}

// NewGetUserTrafficUseCase creates a new instance of GetUserTrafficUseCase
func NewGetUserTrafficUseCase(
	userRepo user.Repository,
	entitlementRepo entitlement.Repository,
	seriesReader MinuteSeriesReader,
	logger logger.Interface,
) *GetUserTrafficUseCase {
	return &GetUserTrafficUseCase{
		userRepo:        userRepo,
		entitlementRepo: entitlementRepo,
		seriesReader:    seriesReader,
		logger:          logger,
	}
}

// Execute returns the aggregate usage for the user.
func (uc *GetUserTrafficUseCase) Execute(ctx context.Context, cmd GetUserTrafficCommand) (*GetUserTrafficResult, error) {
	if _, err := uc.userRepo.GetByID(ctx, cmd.UserID); err != nil {
		return nil, err
	}

	now := biztime.NowUTC()
	ents, err := uc.entitlementRepo.ListActiveByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	result := &GetUserTrafficResult{UserID: cmd.UserID}
	for _, ent := range ents {
		if !ent.IsUsable(now) {
			continue
		}
		result.UsedBytes += ent.TrafficUsedBytes()
		if ent.IsUnlimited() {
			result.Unlimited = true
			continue
		}
		result.TotalBytes += ent.TrafficTotalBytes()
	}
	if result.Unlimited {
		result.TotalBytes = entitlement.UnlimitedTraffic
		result.RemainingBytes = entitlement.UnlimitedTraffic
	} else {
		result.RemainingBytes = result.TotalBytes - result.UsedBytes
		if result.RemainingBytes < 0 {
			result.RemainingBytes = 0
		}
	}

	if uc.seriesReader != nil {
		series, err := uc.seriesReader.Last24h(ctx, cmd.UserID)
		if err != nil {
			uc.logger.Warnw("minute traffic series unavailable", "user_id", cmd.UserID, "error", err)
		} else {
			result.Series = series
		}
	}

	return result, nil
}
