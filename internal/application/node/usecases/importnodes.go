package usecases

import (
	"context"

	"meridian/internal/domain/catalog"
	"meridian/internal/infrastructure/agent"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// AgentGateway is the slice of the agent client the import flow needs.
type AgentGateway interface {
	FetchNodeInfo(ctx context.Context, agentURL, token string) ([]agent.NodeInfo, error)
	PushUsers(ctx context.Context, agentURL, token string, nodeID uint, uuids []string) error
}

// ImportNodesCommand pulls an agent's inventory and registers every node,
// optionally binding them to plans.
type ImportNodesCommand struct {
	AgentURL string
	Token    string
	PlanIDs  []uint
}

// ImportNodesResult contains the import counters
type ImportNodesResult struct {
	Imported int
	Updated  int
	NodeIDs  []uint
}

// ImportNodesUseCase bulk-registers an agent's nodes. Registration is
// idempotent per identity, so re-importing the same agent is safe.
type ImportNodesUseCase struct {
	agentGateway    AgentGateway
	registerUseCase *RegisterNodeUseCase
	planNodeRepo    catalog.PlanNodeRepository
	logger          logger.Interface
}

// NewImportNodesUseCase creates a new instance of ImportNodesUseCase
func NewImportNodesUseCase(
	agentGateway AgentGateway,
	registerUseCase *RegisterNodeUseCase,
	planNodeRepo catalog.PlanNodeRepository,
	logger logger.Interface,
) *ImportNodesUseCase {
	return &ImportNodesUseCase{
		agentGateway:    agentGateway,
		registerUseCase: registerUseCase,
		planNodeRepo:    planNodeRepo,
		logger:          logger,
	}
}

// Execute imports the agent's nodes.
func (uc *ImportNodesUseCase) Execute(ctx context.Context, cmd ImportNodesCommand) (*ImportNodesResult, error) {
	if cmd.AgentURL == "" {
		return nil, apperrors.NewValidationError("agent_url is required")
	}

	infos, err := uc.agentGateway.FetchNodeInfo(ctx, cmd.AgentURL, cmd.Token)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch node info from agent", err.Error())
	}
	if len(infos) == 0 {
		return nil, apperrors.NewValidationError("agent reported no nodes")
	}

	result := &ImportNodesResult{}
	for _, info := range infos {
		reg, err := uc.registerUseCase.Execute(ctx, RegisterNodeCommand{
			Name:     info.Name,
			Address:  info.Address,
			Port:     info.Port,
			Protocol: info.Protocol,
			Config:   info.Config,
		})
		if err != nil {
			uc.logger.Warnw("skipping node from agent",
				"agent_url", cmd.AgentURL, "address", info.Address, "port", info.Port, "error", err)
			continue
		}
		if reg.Created {
			result.Imported++
		} else {
			result.Updated++
		}
		result.NodeIDs = append(result.NodeIDs, reg.NodeID)

		if len(cmd.PlanIDs) > 0 {
			if err := uc.planNodeRepo.BindPlans(ctx, reg.NodeID, cmd.PlanIDs); err != nil {
				return nil, err
			}
		}
	}

	uc.logger.Infow("agent nodes imported",
		"agent_url", cmd.AgentURL, "imported", result.Imported, "updated", result.Updated)
	return result, nil
}
