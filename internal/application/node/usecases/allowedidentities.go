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

// AllowedIdentitiesCommand lists the client UUIDs a node should accept.
type AllowedIdentitiesCommand struct {
	NodeID uint
}

// AllowedIdentitiesResult contains the allowed UUIDs
type AllowedIdentitiesResult struct {
	UUIDs []string
}

// AllowedIdentitiesUseCase resolves every user whose effective plan set
// covers the node into their canonical client UUID. The effective set is the
// same exclusive-collapsed set the authorization gate uses, so a user whose
// node-bound holding lost the exclusive collapse is not pushed. Users without
// any client get one minted on the spot so agent pushes never skip them.
type AllowedIdentitiesUseCase struct {
	entitlementRepo entitlement.Repository
	clientRepo      user.ClientRepository
	planNodeRepo    catalog.PlanNodeRepository
	planIDsUseCase  *entitlementuc.ActivePlanIDsUseCase
	logger          logger.Interface
}

// NewAllowedIdentitiesUseCase creates a new instance of AllowedIdentitiesUseCase
func NewAllowedIdentitiesUseCase(
	entitlementRepo entitlement.Repository,
	clientRepo user.ClientRepository,
	planNodeRepo catalog.PlanNodeRepository,
	planIDsUseCase *entitlementuc.ActivePlanIDsUseCase,
	logger logger.Interface,
) *AllowedIdentitiesUseCase {
	return &AllowedIdentitiesUseCase{
		entitlementRepo: entitlementRepo,
		clientRepo:      clientRepo,
		planNodeRepo:    planNodeRepo,
		planIDsUseCase:  planIDsUseCase,
		logger:          logger,
	}
}

// Execute resolves the UUID list.
func (uc *AllowedIdentitiesUseCase) Execute(ctx context.Context, cmd AllowedIdentitiesCommand) (*AllowedIdentitiesResult, error) {
	if cmd.NodeID == 0 {
		return nil, apperrors.NewValidationError("node_id is required")
	}

	userIDs, err := uc.entitlementRepo.ListUserIDsWithNodeAccess(ctx, cmd.NodeID, nowUTC())
	if err != nil {
		return nil, err
	}

	nodePlanIDs, err := uc.planNodeRepo.PlanIDsForNode(ctx, cmd.NodeID)
	if err != nil {
		return nil, err
	}

	uuids := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		planIDs, err := uc.planIDsUseCase.Execute(ctx, entitlementuc.ActivePlanIDsCommand{UserID: userID})
		if err != nil {
			return nil, err
		}
		if !intersects(planIDs.PlanIDs, nodePlanIDs) {
			continue
		}
		client, err := uc.clientRepo.GetCanonicalByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, user.ErrClientNotFound) {
				return nil, err
			}
			client, err = user.NewClient(userID, "auto")
			if err != nil {
				return nil, err
			}
			if err := uc.clientRepo.Create(ctx, client); err != nil {
				return nil, err
			}
			uc.logger.Infow("minted canonical client", "user_id", userID, "uuid", client.UUID())
		}
		uuids = append(uuids, client.UUID())
	}

	return &AllowedIdentitiesResult{UUIDs: uuids}, nil
}
