package usecases

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/order"
	"meridian/internal/domain/user"
	"meridian/internal/shared/biztime"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// signinGroupKey is the hidden catalog group whose first plan anchors the
// zero-amount audit orders signin produces.
const signinGroupKey = "signin"

// DailySigninCommand checks a user in for the current business day.
type DailySigninCommand struct {
	UserID uint
}

// DailySigninResult contains the signin outcome
type DailySigninResult struct {
	Date          string
	BonusBytes    int64
	Streak        int
	AlreadySigned bool
}

// DailySigninUseCase awards a random traffic bonus and a small service
// extension once per business day. The unique (user, date) record makes the
// operation idempotent: a repeat call returns the recorded bonus without
// granting again, even when two requests race.
type DailySigninUseCase struct {
	userRepo        user.Repository
	signinRepo      user.SigninRepository
	entitlementRepo entitlement.Repository
	orderRepo       order.Repository
	groupRepo       catalog.PlanGroupRepository
	planRepo        catalog.PlanRepository
	txManager       *db.TransactionManager
	maxBonusBytes   int64
	extendMinutes   int
	logger          logger.Interface
}

// NewDailySigninUseCase creates a new instance of DailySigninUseCase
func NewDailySigninUseCase(
	userRepo user.Repository,
	signinRepo user.SigninRepository,
	entitlementRepo entitlement.Repository,
	orderRepo order.Repository,
	groupRepo catalog.PlanGroupRepository,
	planRepo catalog.PlanRepository,
	txManager *db.TransactionManager,
	maxBonusBytes int64,
	extendMinutes int,
	logger logger.Interface,
) *DailySigninUseCase {
	return &DailySigninUseCase{
		userRepo:        userRepo,
		signinRepo:      signinRepo,
		entitlementRepo: entitlementRepo,
		orderRepo:       orderRepo,
		groupRepo:       groupRepo,
		planRepo:        planRepo,
		txManager:       txManager,
		maxBonusBytes:   maxBonusBytes,
		extendMinutes:   extendMinutes,
		logger:          logger,
	}
}

// Execute performs the signin.
func (uc *DailySigninUseCase) Execute(ctx context.Context, cmd DailySigninCommand) (*DailySigninResult, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.NewValidationError("user_id is required")
	}

	u, err := uc.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if u.IsBanned() {
		return nil, apperrors.NewForbiddenError("account is banned")
	}

	now := biztime.NowUTC()
	today := biztime.BizDate(now)
	yesterday := biztime.BizDate(now.AddDate(0, 0, -1))

	if existing, err := uc.signinRepo.GetByUserAndDate(ctx, cmd.UserID, today); err != nil {
		return nil, err
	} else if existing != nil {
		return &DailySigninResult{
			Date:          today,
			BonusBytes:    existing.BonusBytes(),
			Streak:        u.SigninStreak(),
			AlreadySigned: true,
		}, nil
	}

	bonus := rand.Int63n(uc.maxBonusBytes + 1)

	var result DailySigninResult
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		prevDate := ""
		if latest, err := uc.signinRepo.GetLatestByUser(txCtx, cmd.UserID); err != nil {
			return err
		} else if latest != nil {
			prevDate = latest.Date()
		}

		record, err := user.NewSigninRecord(cmd.UserID, today, bonus)
		if err != nil {
			return err
		}
		if err := uc.signinRepo.Create(txCtx, record); err != nil {
			return err
		}

		u.RecordSignin(now, yesterday, prevDate)
		u.AddCompatTraffic(bonus)
		if err := uc.userRepo.Update(txCtx, u); err != nil {
			return err
		}

		signinGroupID, signinPlanID := uc.resolveSigninPlan(txCtx)
		orderID := uc.recordSigninOrder(txCtx, cmd.UserID, signinPlanID, bonus, now)

		// the bonus bytes live in the compat counter; the entitlement only
		// gets the time extension
		extend := time.Duration(uc.extendMinutes) * time.Minute
		ent, err := uc.entitlementRepo.GetLatestActiveByUser(txCtx, cmd.UserID)
		if err != nil && !errors.Is(err, entitlement.ErrEntitlementNotFound) {
			return err
		}
		switch {
		case ent != nil:
			if err := ent.Extend(extend, now); err != nil {
				return err
			}
			if err := uc.entitlementRepo.Update(txCtx, ent); err != nil {
				return err
			}
		case signinPlanID != 0:
			fresh, err := entitlement.NewEntitlement(
				cmd.UserID, signinGroupID, signinPlanID, now, now.Add(extend), 0, 0, orderID)
			if err != nil {
				return err
			}
			if err := uc.entitlementRepo.Create(txCtx, fresh); err != nil {
				return err
			}
		}

		result = DailySigninResult{
			Date:       today,
			BonusBytes: bonus,
			Streak:     u.SigninStreak(),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrSigninExists) {
			if existing, gerr := uc.signinRepo.GetByUserAndDate(ctx, cmd.UserID, today); gerr == nil && existing != nil {
				return &DailySigninResult{
					Date:          today,
					BonusBytes:    existing.BonusBytes(),
					Streak:        u.SigninStreak(),
					AlreadySigned: true,
				}, nil
			}
			return nil, apperrors.NewConflictError("already signed in today")
		}
		return nil, err
	}

	uc.logger.Infow("daily signin",
		"user_id", cmd.UserID, "date", today, "bonus_bytes", bonus, "streak", result.Streak)
	return &result, nil
}

// resolveSigninPlan locates the hidden signin catalog entry. Both IDs are
// zero when it is not configured; the signin still succeeds without it.
func (uc *DailySigninUseCase) resolveSigninPlan(ctx context.Context) (groupID, planID uint) {
	group, err := uc.groupRepo.GetByKey(ctx, signinGroupKey)
	if err != nil {
		return 0, 0
	}
	plans, err := uc.planRepo.ListByGroup(ctx, group.ID())
	if err != nil || len(plans) == 0 {
		return 0, 0
	}
	return group.ID(), plans[0].ID()
}

// recordSigninOrder writes the zero-amount audit order.
func (uc *DailySigninUseCase) recordSigninOrder(ctx context.Context, userID, planID uint, bonus int64, now time.Time) uint {
	if planID == 0 {
		return 0
	}

	o, err := order.NewOrder(userID, planID, order.TypeSignin, 0, 0, bonus, "daily signin bonus")
	if err != nil {
		uc.logger.Warnw("signin order build failed", "user_id", userID, "error", err)
		return 0
	}
	if err := uc.orderRepo.Create(ctx, o); err != nil {
		uc.logger.Warnw("signin order create failed", "user_id", userID, "error", err)
		return 0
	}
	if err := o.MarkPaid("signin", now); err != nil {
		return o.ID()
	}
	if err := uc.orderRepo.Update(ctx, o); err != nil {
		uc.logger.Warnw("signin order pay failed", "user_id", userID, "order_id", o.ID(), "error", err)
	}
	return o.ID()
}
