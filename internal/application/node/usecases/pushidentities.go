package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/node"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// PushIdentitiesCommand pushes a node's allowed UUID list to its agent.
type PushIdentitiesCommand struct {
	NodeID   uint
	AgentURL string
	Token    string
}

// PushIdentitiesResult contains the push outcome
type PushIdentitiesResult struct {
	NodeID    uint
	UUIDCount int
}

// PushIdentitiesUseCase resolves the allowed identities for a node and posts
// them to the agent.
type PushIdentitiesUseCase struct {
	nodeRepo       node.Repository
	allowedUseCase *AllowedIdentitiesUseCase
	agentGateway   AgentGateway
	logger         logger.Interface
}

// NewPushIdentitiesUseCase creates a new instance of PushIdentitiesUseCase
func NewPushIdentitiesUseCase(
	nodeRepo node.Repository,
	allowedUseCase *AllowedIdentitiesUseCase,
	agentGateway AgentGateway,
	logger logger.Interface,
) *PushIdentitiesUseCase {
	return &PushIdentitiesUseCase{
		nodeRepo:       nodeRepo,
		allowedUseCase: allowedUseCase,
		agentGateway:   agentGateway,
		logger:         logger,
	}
}

// Execute pushes the identities.
func (uc *PushIdentitiesUseCase) Execute(ctx context.Context, cmd PushIdentitiesCommand) (*PushIdentitiesResult, error) {
	if cmd.AgentURL == "" {
		return nil, apperrors.NewValidationError("agent_url is required")
	}

	n, err := uc.nodeRepo.GetByID(ctx, cmd.NodeID)
	if err != nil {
		if errors.Is(err, node.ErrNodeNotFound) {
			return nil, apperrors.NewNotFoundError("node not found")
		}
		return nil, err
	}
	if !n.IsEnabled() {
		return nil, apperrors.NewConflictError("node is disabled")
	}

	allowed, err := uc.allowedUseCase.Execute(ctx, AllowedIdentitiesCommand{NodeID: n.ID()})
	if err != nil {
		return nil, err
	}

	if err := uc.agentGateway.PushUsers(ctx, cmd.AgentURL, cmd.Token, n.ID(), allowed.UUIDs); err != nil {
		return nil, apperrors.NewInternalError("failed to push identities to agent", err.Error())
	}

	return &PushIdentitiesResult{NodeID: n.ID(), UUIDCount: len(allowed.UUIDs)}, nil
}
