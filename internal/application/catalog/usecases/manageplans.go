package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/catalog"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// PlanView is the read model for a plan.
type PlanView struct {
	ID                uint   `json:"id"`
	GroupID           uint   `json:"group_id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Price             int64  `json:"price"`
	DurationDays      int    `json:"duration_days"`
	TrafficLimitBytes int64  `json:"traffic_limit_bytes"`
	Status            string `json:"status"`
	IsPublic          bool   `json:"is_public"`
	SortOrder         int    `json:"sort_order"`
	NodeIDs           []uint `json:"node_ids,omitempty"`
}

// CreatePlanCommand creates a plan inside an enabled group.
type CreatePlanCommand struct {
	GroupID           uint
	Name              string
	Description       string
	Price             int64
	DurationDays      int
	TrafficLimitBytes int64
	NodeIDs           []uint
}

// UpdatePlanCommand mutates a plan; nil fields are left alone. NodeIDs
// replaces the plan's node bindings when HasNodes is set.
type UpdatePlanCommand struct {
	PlanID            uint
	Name              *string
	Description       *string
	Price             *int64
	DurationDays      *int
	TrafficLimitBytes *int64
	Status            *string
	IsPublic          *bool
	SortOrder         *int
	NodeIDs           []uint
	HasNodes          bool
}

// DeletePlanCommand removes a plan and its node bindings.
type DeletePlanCommand struct {
	PlanID uint
}

// ListPlansCommand lists plans, optionally scoped to a group.
type ListPlansCommand struct {
	GroupID    uint
	PublicOnly bool
}

// ListPlansResult contains the plan views
type ListPlansResult struct {
	Plans []PlanView
}

// ManagePlansUseCase covers the plan CRUD surface.
type ManagePlansUseCase struct {
	planRepo     catalog.PlanRepository
	groupRepo    catalog.PlanGroupRepository
	planNodeRepo catalog.PlanNodeRepository
	logger       logger.Interface
}

// NewManagePlansUseCase creates a new instance of ManagePlansUseCase
func NewManagePlansUseCase(
	planRepo catalog.PlanRepository,
	groupRepo catalog.PlanGroupRepository,
	planNodeRepo catalog.PlanNodeRepository,
	logger logger.Interface,
) *ManagePlansUseCase {
	return &ManagePlansUseCase{
		planRepo:     planRepo,
		groupRepo:    groupRepo,
		planNodeRepo: planNodeRepo,
		logger:       logger,
	}
}

// Create adds a plan.
func (uc *ManagePlansUseCase) Create(ctx context.Context, cmd CreatePlanCommand) (*PlanView, error) {
	group, err := uc.groupRepo.GetByID(ctx, cmd.GroupID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanGroupNotFound) {
			return nil, apperrors.NewNotFoundError("plan group not found")
		}
		return nil, err
	}
	if !group.IsEnabled() {
		return nil, apperrors.NewConflictError("plan group is disabled")
	}

	plan, err := catalog.NewPlan(cmd.GroupID, cmd.Name, cmd.Description, cmd.Price, cmd.DurationDays, cmd.TrafficLimitBytes)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}

	if len(cmd.NodeIDs) > 0 {
		if err := uc.planNodeRepo.ReplaceBindings(ctx, plan.ID(), cmd.NodeIDs); err != nil {
			return nil, err
		}
	}

	uc.logger.Infow("plan created", "plan_id", plan.ID(), "group_id", cmd.GroupID, "name", plan.Name())
	view := toPlanView(plan)
	view.NodeIDs = cmd.NodeIDs
	return &view, nil
}

// Update mutates a plan.
func (uc *ManagePlansUseCase) Update(ctx context.Context, cmd UpdatePlanCommand) (*PlanView, error) {
	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		return nil, err
	}

	if err := plan.Apply(catalog.PlanUpdate{
		Name:              cmd.Name,
		Description:       cmd.Description,
		Price:             cmd.Price,
		DurationDays:      cmd.DurationDays,
		TrafficLimitBytes: cmd.TrafficLimitBytes,
		Status:            cmd.Status,
		IsPublic:          cmd.IsPublic,
		SortOrder:         cmd.SortOrder,
	}); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	if cmd.HasNodes {
		if err := uc.planNodeRepo.ReplaceBindings(ctx, plan.ID(), cmd.NodeIDs); err != nil {
			return nil, err
		}
	}

	uc.logger.Infow("plan updated", "plan_id", plan.ID())
	view := toPlanView(plan)
	if cmd.HasNodes {
		view.NodeIDs = cmd.NodeIDs
	}
	return &view, nil
}

// Delete removes a plan and its node bindings.
func (uc *ManagePlansUseCase) Delete(ctx context.Context, cmd DeletePlanCommand) error {
	if _, err := uc.planRepo.GetByID(ctx, cmd.PlanID); err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return apperrors.NewNotFoundError("plan not found")
		}
		return err
	}

	if err := uc.planNodeRepo.DeleteByPlan(ctx, cmd.PlanID); err != nil {
		return err
	}
	if err := uc.planRepo.Delete(ctx, cmd.PlanID); err != nil {
		return err
	}

	uc.logger.Infow("plan deleted", "plan_id", cmd.PlanID)
	return nil
}

// List returns plans with their node bindings.
func (uc *ManagePlansUseCase) List(ctx context.Context, cmd ListPlansCommand) (*ListPlansResult, error) {
	var plans []*catalog.Plan
	var err error
	if cmd.GroupID != 0 {
		plans, err = uc.planRepo.ListByGroup(ctx, cmd.GroupID)
	} else {
		plans, err = uc.planRepo.List(ctx, cmd.PublicOnly)
	}
	if err != nil {
		return nil, err
	}

	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		if cmd.PublicOnly && (!p.IsEnabled() || !p.IsPublic()) {
			continue
		}
		view := toPlanView(p)
		nodeIDs, err := uc.planNodeRepo.NodeIDsForPlan(ctx, p.ID())
		if err != nil {
			return nil, err
		}
		view.NodeIDs = nodeIDs
		views = append(views, view)
	}
	return &ListPlansResult{Plans: views}, nil
}

func toPlanView(p *catalog.Plan) PlanView {
	return PlanView{
		ID:                p.ID(),
		GroupID:           p.GroupID(),
		Name:              p.Name(),
		Description:       p.Description(),
		Price:             p.Price(),
		DurationDays:      p.DurationDays(),
		TrafficLimitBytes: p.TrafficLimitBytes(),
		Status:            string(p.Status()),
		IsPublic:          p.IsPublic(),
		SortOrder:         p.SortOrder(),
	}
}
