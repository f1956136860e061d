package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/node"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// RegisterNodeCommand registers or refreshes a node by its identity triple.
// PlanIDs, when present, are bound to the node after registration.
type RegisterNodeCommand struct {
	Name     string
	Address  string
	Port     int
	Protocol string
	Config   map[string]interface{}
	PlanIDs  []uint
}

// RegisterNodeResult contains the registered node
type RegisterNodeResult struct {
	NodeID  uint
	Created bool
}

// RegisterNodeUseCase is the idempotent agent-facing registration: an
// existing (address, port, protocol) identity is refreshed in place, a new
// one is created enabled.
type RegisterNodeUseCase struct {
	nodeRepo     node.Repository
	planNodeRepo catalog.PlanNodeRepository
	logger       logger.Interface
}

// NewRegisterNodeUseCase creates a new instance of RegisterNodeUseCase
func NewRegisterNodeUseCase(nodeRepo node.Repository, planNodeRepo catalog.PlanNodeRepository, logger logger.Interface) *RegisterNodeUseCase {
	return &RegisterNodeUseCase{nodeRepo: nodeRepo, planNodeRepo: planNodeRepo, logger: logger}
}

// Execute registers the node.
func (uc *RegisterNodeUseCase) Execute(ctx context.Context, cmd RegisterNodeCommand) (*RegisterNodeResult, error) {
	if cmd.Address == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	if cmd.Port < 1 || cmd.Port > 65535 {
		return nil, apperrors.NewValidationError("invalid port")
	}
	if !node.Protocol(cmd.Protocol).IsValid() {
		return nil, apperrors.NewValidationError("invalid protocol")
	}

	existing, err := uc.nodeRepo.GetByIdentity(ctx, cmd.Address, cmd.Port, cmd.Protocol)
	if err != nil && !errors.Is(err, node.ErrNodeNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.RefreshFromAgent(cmd.Name, cmd.Config)
		if err := uc.nodeRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		if err := uc.bindPlans(ctx, existing.ID(), cmd.PlanIDs); err != nil {
			return nil, err
		}
		uc.logger.Infow("node refreshed", "node_id", existing.ID(), "address", cmd.Address, "port", cmd.Port)
		return &RegisterNodeResult{NodeID: existing.ID()}, nil
	}

	name := cmd.Name
	if name == "" {
		name = cmd.Address
	}
	n, err := node.NewNode(name, cmd.Address, cmd.Port, node.Protocol(cmd.Protocol), cmd.Config)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.nodeRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	if err := uc.bindPlans(ctx, n.ID(), cmd.PlanIDs); err != nil {
		return nil, err
	}

	uc.logger.Infow("node registered", "node_id", n.ID(), "address", cmd.Address, "port", cmd.Port, "protocol", cmd.Protocol)
	return &RegisterNodeResult{NodeID: n.ID(), Created: true}, nil
}

func (uc *RegisterNodeUseCase) bindPlans(ctx context.Context, nodeID uint, planIDs []uint) error {
	if len(planIDs) == 0 {
		return nil
	}
	return uc.planNodeRepo.BindPlans(ctx, nodeID, planIDs)
}
