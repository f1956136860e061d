package usecases

import (
	"context"
	"errors"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/domain/catalog"
	"meridian/internal/domain/entitlement"
	"meridian/internal/domain/user"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// Deny reasons returned to node gateways.
const (
	ReasonUUIDNotFound    = "uuid_not_found"
	ReasonUUIDDisabled    = "uuid_disabled"
	ReasonUserBanned      = "user_banned"
	ReasonNoActivePlan    = "no_active_plan"
	ReasonNodeNotAllowed  = "node_not_allowed"
	ReasonTrafficExceeded = "traffic_exceeded"
)

// AuthorizeConnectionCommand is a gateway asking whether a client UUID may
// connect. NodeID zero answers the account-level question only, without the
// node binding checks.
type AuthorizeConnectionCommand struct {
	UUID   string
	NodeID uint
}

// AuthorizeConnectionResult carries the verdict. Reason is empty on allow.
type AuthorizeConnectionResult struct {
	Allowed       bool
	Reason        string
	UserID        uint
	ActivePlanIDs []uint
}

// AuthorizeConnectionUseCase is the node authorization gate. Status flips
// (expiry, exhaustion) are refreshed before the check so a just-expired
// entitlement denies immediately. A denial is a normal result, not an error.
type AuthorizeConnectionUseCase struct {
	clientRepo      user.ClientRepository
	userRepo        user.Repository
	entitlementRepo entitlement.Repository
	planNodeRepo    catalog.PlanNodeRepository
	refreshUseCase  *entitlementuc.RefreshEntitlementStatusUseCase
	planIDsUseCase  *entitlementuc.ActivePlanIDsUseCase
	logger          logger.Interface
}

// NewAuthorizeConnectionUseCase creates a new instance of AuthorizeConnectionUseCase
func NewAuthorizeConnectionUseCase(
	clientRepo user.ClientRepository,
	userRepo user.Repository,
	entitlementRepo entitlement.Repository,
	planNodeRepo catalog.PlanNodeRepository,
	refreshUseCase *entitlementuc.RefreshEntitlementStatusUseCase,
	planIDsUseCase *entitlementuc.ActivePlanIDsUseCase,
	logger logger.Interface,
) *AuthorizeConnectionUseCase {
	return &AuthorizeConnectionUseCase{
		clientRepo:      clientRepo,
		userRepo:        userRepo,
		entitlementRepo: entitlementRepo,
		planNodeRepo:    planNodeRepo,
		refreshUseCase:  refreshUseCase,
		planIDsUseCase:  planIDsUseCase,
		logger:          logger,
	}
}

// Execute answers the authorization question.
func (uc *AuthorizeConnectionUseCase) Execute(ctx context.Context, cmd AuthorizeConnectionCommand) (*AuthorizeConnectionResult, error) {
	if cmd.UUID == "" {
		return nil, apperrors.NewValidationError("uuid is required")
	}

	if _, err := uc.refreshUseCase.Execute(ctx); err != nil {
		uc.logger.Warnw("entitlement status refresh failed", "error", err)
	}

	client, err := uc.clientRepo.GetByUUID(ctx, cmd.UUID)
	if err != nil {
		if errors.Is(err, user.ErrClientNotFound) {
			return uc.deny(cmd, 0, ReasonUUIDNotFound), nil
		}
		return nil, err
	}
	if !client.Enabled() {
		return uc.deny(cmd, client.UserID(), ReasonUUIDDisabled), nil
	}

	u, err := uc.userRepo.GetByID(ctx, client.UserID())
	if err != nil {
		return nil, err
	}
	if u.IsBanned() {
		return uc.deny(cmd, u.ID(), ReasonUserBanned), nil
	}

	planIDs, err := uc.planIDsUseCase.Execute(ctx, entitlementuc.ActivePlanIDsCommand{UserID: u.ID()})
	if err != nil {
		return nil, err
	}
	if len(planIDs.PlanIDs) == 0 {
		// a drained account denies as traffic_exceeded, not as having no
		// plan; the refresh above has already flipped exhausted rows
		drained, err := uc.hasExhaustedEntitlement(ctx, u.ID())
		if err != nil {
			return nil, err
		}
		if drained {
			return uc.deny(cmd, u.ID(), ReasonTrafficExceeded), nil
		}
		return uc.deny(cmd, u.ID(), ReasonNoActivePlan), nil
	}

	if cmd.NodeID != 0 {
		nodePlanIDs, err := uc.planNodeRepo.PlanIDsForNode(ctx, cmd.NodeID)
		if err != nil {
			return nil, err
		}
		if !intersects(planIDs.PlanIDs, nodePlanIDs) {
			return uc.deny(cmd, u.ID(), ReasonNodeNotAllowed), nil
		}

		// The plan is bound to the node, so an empty usable set means every
		// eligible entitlement is drained.
		usable, err := uc.entitlementRepo.ListUsableForNode(ctx, u.ID(), cmd.NodeID, nowUTC())
		if err != nil {
			return nil, err
		}
		if len(usable) == 0 {
			return uc.deny(cmd, u.ID(), ReasonTrafficExceeded), nil
		}
	}

	return &AuthorizeConnectionResult{
		Allowed:       true,
		UserID:        u.ID(),
		ActivePlanIDs: planIDs.PlanIDs,
	}, nil
}

func (uc *AuthorizeConnectionUseCase) hasExhaustedEntitlement(ctx context.Context, userID uint) (bool, error) {
	ents, err := uc.entitlementRepo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, ent := range ents {
		if ent.Status() == entitlement.StatusExhausted {
			return true, nil
		}
	}
	return false, nil
}

func (uc *AuthorizeConnectionUseCase) deny(cmd AuthorizeConnectionCommand, userID uint, reason string) *AuthorizeConnectionResult {
	uc.logger.Infow("connection denied",
		"node_id", cmd.NodeID, "uuid", cmd.UUID, "user_id", userID, "reason", reason)
	return &AuthorizeConnectionResult{Reason: reason, UserID: userID}
}

func intersects(a, b []uint) bool {
	set := make(map[uint]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	for _, id := range a {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
