package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/catalog"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// GroupView is the read model for a plan group.
type GroupView struct {
	ID             uint   `json:"id"`
	GroupKey       string `json:"group_key"`
	Name           string `json:"name"`
	Level          int    `json:"level"`
	IsExclusive    bool   `json:"is_exclusive"`
	Status         string `json:"status"`
	IsPublic       bool   `json:"is_public"`
	SortOrder      int    `json:"sort_order"`
	Connections    int    `json:"connections"`
	SpeedLimitMbps int    `json:"speed_limit_mbps"`
}

// CreateGroupCommand creates a plan group.
type CreateGroupCommand struct {
	GroupKey       string
	Name           string
	Level          int
	IsExclusive    bool
	Connections    int
	SpeedLimitMbps int
}

// UpdateGroupCommand mutates a plan group; nil fields are left alone.
type UpdateGroupCommand struct {
	GroupID        uint
	Name           *string
	Level          *int
	IsExclusive    *bool
	Status         *string
	IsPublic       *bool
	SortOrder      *int
	Connections    *int
	SpeedLimitMbps *int
}

// DeleteGroupCommand removes an empty plan group.
type DeleteGroupCommand struct {
	GroupID uint
}

// ListGroupsCommand lists groups; PublicOnly hides internal ones.
type ListGroupsCommand struct {
	PublicOnly bool
}

// ListGroupsResult contains the group views
type ListGroupsResult struct {
	Groups []GroupView
}

// ManageGroupsUseCase covers the plan group CRUD surface. Deleting a group
// that still has plans is refused so entitlements never point at an orphaned
// group.
type ManageGroupsUseCase struct {
	groupRepo catalog.PlanGroupRepository
	planRepo  catalog.PlanRepository
	logger    logger.Interface
}

// NewManageGroupsUseCase creates a new instance of ManageGroupsUseCase
func NewManageGroupsUseCase(
	groupRepo catalog.PlanGroupRepository,
	planRepo catalog.PlanRepository,
	logger logger.Interface,
) *ManageGroupsUseCase {
	return &ManageGroupsUseCase{groupRepo: groupRepo, planRepo: planRepo, logger: logger}
}

// Create adds a plan group.
func (uc *ManageGroupsUseCase) Create(ctx context.Context, cmd CreateGroupCommand) (*GroupView, error) {
	group, err := catalog.NewPlanGroup(cmd.GroupKey, cmd.Name, cmd.Level, cmd.IsExclusive, cmd.Connections, cmd.SpeedLimitMbps)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, catalog.ErrGroupKeyExists) || apperrors.IsConflictError(err) {
			return nil, apperrors.NewConflictError("group key already exists")
		}
		return nil, err
	}

	uc.logger.Infow("plan group created", "group_id", group.ID(), "group_key", group.GroupKey())
	view := toGroupView(group)
	return &view, nil
}

// Update mutates a plan group.
func (uc *ManageGroupsUseCase) Update(ctx context.Context, cmd UpdateGroupCommand) (*GroupView, error) {
	group, err := uc.groupRepo.GetByID(ctx, cmd.GroupID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanGroupNotFound) {
			return nil, apperrors.NewNotFoundError("plan group not found")
		}
		return nil, err
	}

	if err := group.Apply(catalog.GroupUpdate{
		Name:           cmd.Name,
		Level:          cmd.Level,
		IsExclusive:    cmd.IsExclusive,
		Status:         cmd.Status,
		IsPublic:       cmd.IsPublic,
		SortOrder:      cmd.SortOrder,
		Connections:    cmd.Connections,
		SpeedLimitMbps: cmd.SpeedLimitMbps,
	}); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.groupRepo.Update(ctx, group); err != nil {
		return nil, err
	}

	uc.logger.Infow("plan group updated", "group_id", group.ID())
	view := toGroupView(group)
	return &view, nil
}

// Delete removes a plan group with no plans.
func (uc *ManageGroupsUseCase) Delete(ctx context.Context, cmd DeleteGroupCommand) error {
	if _, err := uc.groupRepo.GetByID(ctx, cmd.GroupID); err != nil {
		if errors.Is(err, catalog.ErrPlanGroupNotFound) {
			return apperrors.NewNotFoundError("plan group not found")
		}
		return err
	}

	count, err := uc.planRepo.CountByGroup(ctx, cmd.GroupID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflictError("plan group still has plans",
			"delete or move its plans first")
	}

	if err := uc.groupRepo.Delete(ctx, cmd.GroupID); err != nil {
		return err
	}

	uc.logger.Infow("plan group deleted", "group_id", cmd.GroupID)
	return nil
}

// List returns plan groups.
func (uc *ManageGroupsUseCase) List(ctx context.Context, cmd ListGroupsCommand) (*ListGroupsResult, error) {
	groups, err := uc.groupRepo.List(ctx, cmd.PublicOnly)
	if err != nil {
		return nil, err
	}

	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, toGroupView(g))
	}
	return &ListGroupsResult{Groups: views}, nil
}

func toGroupView(g *catalog.PlanGroup) GroupView {
	return GroupView{
		ID:             g.ID(),
		GroupKey:       g.GroupKey(),
		Name:           g.Name(),
		Level:          g.Level(),
		IsExclusive:    g.IsExclusive(),
		Status:         string(g.Status()),
		IsPublic:       g.IsPublic(),
		SortOrder:      g.SortOrder(),
		Connections:    g.Connections(),
		SpeedLimitMbps: g.SpeedLimitMbps(),
	}
}
