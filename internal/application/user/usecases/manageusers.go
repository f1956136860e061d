package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/user"
	"meridian/internal/shared/biztime"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

// UserView is the admin read model for an account.
type UserView struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	TrafficTotal int64  `json:"traffic_total_bytes"`
	TrafficUsed  int64  `json:"traffic_used_bytes"`
	ExpiredAt    *int64 `json:"expired_at,omitempty"`
	SigninStreak int    `json:"signin_streak"`
	CreatedAt    int64  `json:"created_at"`
}

// UserDetailView adds the live entitlement position.
type UserDetailView struct {
	UserView
	ActiveEntitlements int      `json:"active_entitlements"`
	RemainingBytes     int64    `json:"remaining_bytes"`
	Unlimited          bool     `json:"unlimited"`
	ClientUUIDs        []string `json:"client_uuids,omitempty"`
}

// ListUsersCommand filters the account list.
type ListUsersCommand struct {
	Status     string
	Role       string
	Pagination utils.Pagination
}

// ListUsersResult contains the page of accounts
type ListUsersResult struct {
	Users []UserView
	Total int64
}

// ManageUsersUseCase covers the admin account surface.
type ManageUsersUseCase struct {
	userRepo        user.Repository
	clientRepo      user.ClientRepository
	entitlementRepo entitlement.Repository
	logger          logger.Interface
}

// NewManageUsersUseCase creates a new instance of ManageUsersUseCase
func NewManageUsersUseCase(
	userRepo user.Repository,
	clientRepo user.ClientRepository,
	entitlementRepo entitlement.Repository,
	logger logger.Interface,
) *ManageUsersUseCase {
	return &ManageUsersUseCase{
		userRepo:        userRepo,
		clientRepo:      clientRepo,
		entitlementRepo: entitlementRepo,
		logger:          logger,
	}
}

// List returns accounts newest first.
func (uc *ManageUsersUseCase) List(ctx context.Context, cmd ListUsersCommand) (*ListUsersResult, error) {
	filter := user.Filter{
		Page:     cmd.Pagination.Page,
		PageSize: cmd.Pagination.PageSize,
	}
	if cmd.Status != "" {
		filter.Status = &cmd.Status
	}
	if cmd.Role != "" {
		filter.Role = &cmd.Role
	}

	users, total, err := uc.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	return &ListUsersResult{Users: views, Total: total}, nil
}

// Detail returns one account with its ledger position.
func (uc *ManageUsersUseCase) Detail(ctx context.Context, userID uint) (*UserDetailView, error) {
	u, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, err
	}

	detail := &UserDetailView{UserView: toUserView(u)}

	now := biztime.NowUTC()
	ents, err := uc.entitlementRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, ent := range ents {
		if !ent.IsUsable(now) {
			continue
		}
		detail.ActiveEntitlements++
		if ent.IsUnlimited() {
			detail.Unlimited = true
			continue
		}
		detail.RemainingBytes += ent.RemainingBytes()
	}
	if detail.Unlimited {
		detail.RemainingBytes = entitlement.UnlimitedTraffic
	}

	clients, err := uc.clientRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		detail.ClientUUIDs = append(detail.ClientUUIDs, c.UUID())
	}

	return detail, nil
}

// SetBanned bans or unbans an account.
func (uc *ManageUsersUseCase) SetBanned(ctx context.Context, userID uint, banned bool) error {
	u, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return apperrors.NewNotFoundError("user not found")
		}
		return err
	}

	if banned {
		u.Ban()
	} else {
		u.Unban()
	}
	if err := uc.userRepo.Update(ctx, u); err != nil {
		return err
	}

	uc.logger.Warnw("user status changed", "user_id", userID, "banned", banned)
	return nil
}

func toUserView(u *user.User) UserView {
	view := UserView{
		ID:           u.ID(),
		Username:     u.Username(),
		Email:        u.Email(),
		Role:         string(u.Role()),
		Status:       string(u.Status()),
		TrafficTotal: u.TrafficTotal(),
		TrafficUsed:  u.TrafficUsed(),
		SigninStreak: u.SigninStreak(),
		CreatedAt:    u.CreatedAt().Unix(),
	}
	if exp := u.ExpiredAt(); exp != nil {
		ts := exp.Unix()
		view.ExpiredAt = &ts
	}
	return view
}
