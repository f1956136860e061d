package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/catalog"
	"meridian/internal/domain/node"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// NodeView is the read model for a node.
type NodeView struct {
	ID        uint                   `json:"id"`
	Name      string                 `json:"name"`
	Address   string                 `json:"address"`
	Port      int                    `json:"port"`
	Protocol  string                 `json:"protocol"`
	Config    map[string]interface{} `json:"config,omitempty"`
	Status    string                 `json:"status"`
	SortOrder int                    `json:"sort_order"`
	PlanIDs   []uint                 `json:"plan_ids,omitempty"`
}

// CreateNodeCommand creates a node by hand.
type CreateNodeCommand struct {
	Name     string
	Address  string
	Port     int
	Protocol string
	Config   map[string]interface{}
	PlanIDs  []uint
}

// UpdateNodeCommand mutates a node; nil fields are left alone. PlanIDs, when
// non-nil, replaces the node's plan bindings.
type UpdateNodeCommand struct {
	NodeID    uint
	Name      *string
	Address   *string
	Port      *int
	Protocol  *string
	Config    map[string]interface{}
	Status    *string
	SortOrder *int
	PlanIDs   []uint
	HasPlans  bool
}

// DeleteNodeCommand removes a node and its plan bindings.
type DeleteNodeCommand struct {
	NodeID uint
}

// ListNodesCommand lists nodes, optionally only enabled ones.
type ListNodesCommand struct {
	EnabledOnly bool
}

// ListNodesResult contains the node views
type ListNodesResult struct {
	Nodes []NodeView
}

// ManageNodesUseCase covers the admin node CRUD surface.
type ManageNodesUseCase struct {
	nodeRepo     node.Repository
	planNodeRepo catalog.PlanNodeRepository
	txManager    *db.TransactionManager
	logger       logger.Interface
}

// NewManageNodesUseCase creates a new instance of ManageNodesUseCase
func NewManageNodesUseCase(
	nodeRepo node.Repository,
	planNodeRepo catalog.PlanNodeRepository,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ManageNodesUseCase {
	return &ManageNodesUseCase{
		nodeRepo:     nodeRepo,
		planNodeRepo: planNodeRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Create adds a node.
func (uc *ManageNodesUseCase) Create(ctx context.Context, cmd CreateNodeCommand) (*NodeView, error) {
	n, err := node.NewNode(cmd.Name, cmd.Address, cmd.Port, node.Protocol(cmd.Protocol), cmd.Config)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.nodeRepo.Create(txCtx, n); err != nil {
			return err
		}
		if len(cmd.PlanIDs) > 0 {
			return uc.planNodeRepo.BindPlans(txCtx, n.ID(), cmd.PlanIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("node created", "node_id", n.ID(), "name", n.Name())
	view := toNodeView(n)
	view.PlanIDs = cmd.PlanIDs
	return &view, nil
}

// Update mutates a node.
func (uc *ManageNodesUseCase) Update(ctx context.Context, cmd UpdateNodeCommand) (*NodeView, error) {
	n, err := uc.nodeRepo.GetByID(ctx, cmd.NodeID)
	if err != nil {
		if errors.Is(err, node.ErrNodeNotFound) {
			return nil, apperrors.NewNotFoundError("node not found")
		}
		return nil, err
	}

	if err := n.Apply(node.Update{
		Name:      cmd.Name,
		Address:   cmd.Address,
		Port:      cmd.Port,
		Protocol:  cmd.Protocol,
		Config:    cmd.Config,
		Status:    cmd.Status,
		SortOrder: cmd.SortOrder,
	}); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.nodeRepo.Update(txCtx, n); err != nil {
			return err
		}
		if cmd.HasPlans {
			if err := uc.planNodeRepo.DeleteByNode(txCtx, n.ID()); err != nil {
				return err
			}
			if len(cmd.PlanIDs) > 0 {
				return uc.planNodeRepo.BindPlans(txCtx, n.ID(), cmd.PlanIDs)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("node updated", "node_id", n.ID())
	view := toNodeView(n)
	if cmd.HasPlans {
		view.PlanIDs = cmd.PlanIDs
	}
	return &view, nil
}

// Delete removes a node and its bindings.
func (uc *ManageNodesUseCase) Delete(ctx context.Context, cmd DeleteNodeCommand) error {
	if _, err := uc.nodeRepo.GetByID(ctx, cmd.NodeID); err != nil {
		if errors.Is(err, node.ErrNodeNotFound) {
			return apperrors.NewNotFoundError("node not found")
		}
		return err
	}

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.planNodeRepo.DeleteByNode(txCtx, cmd.NodeID); err != nil {
			return err
		}
		return uc.nodeRepo.Delete(txCtx, cmd.NodeID)
	})
	if err != nil {
		return err
	}

	uc.logger.Infow("node deleted", "node_id", cmd.NodeID)
	return nil
}

// List returns nodes with their plan bindings.
func (uc *ManageNodesUseCase) List(ctx context.Context, cmd ListNodesCommand) (*ListNodesResult, error) {
	var nodes []*node.Node
	var err error
	if cmd.EnabledOnly {
		nodes, err = uc.nodeRepo.ListEnabled(ctx)
	} else {
		nodes, err = uc.nodeRepo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		view := toNodeView(n)
		planIDs, err := uc.planNodeRepo.PlanIDsForNode(ctx, n.ID())
		if err != nil {
			return nil, err
		}
		view.PlanIDs = planIDs
		views = append(views, view)
	}
	return &ListNodesResult{Nodes: views}, nil
}

func toNodeView(n *node.Node) NodeView {
	return NodeView{
		ID:        n.ID(),
		Name:      n.Name(),
		Address:   n.Address(),
		Port:      n.Port(),
		Protocol:  string(n.Protocol()),
		Config:    n.Config(),
		Status:    string(n.Status()),
		SortOrder: n.SortOrder(),
	}
}
