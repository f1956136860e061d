package catalog

import "context"

type PlanGroupRepository interface {
	Create(ctx context.Context, group *PlanGroup) error
	Update(ctx context.Context, group *PlanGroup) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*PlanGroup, error)
	GetByKey(ctx context.Context, groupKey string) (*PlanGroup, error)
	List(ctx context.Context, publicOnly bool) ([]*PlanGroup, error)
	ExistsByKey(ctx context.Context, groupKey string) (bool, error)
}

type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	ListByGroup(ctx context.Context, groupID uint) ([]*Plan, error)
	List(ctx context.Context, publicOnly bool) ([]*Plan, error)
	CountByGroup(ctx context.Context, groupID uint) (int64, error)
}

// PlanNodeRepository manages the plan to node bindings that scope where an
// entitlement may carry traffic.
type PlanNodeRepository interface {
	ReplaceBindings(ctx context.Context, planID uint, nodeIDs []uint) error
	BindPlans(ctx context.Context, nodeID uint, planIDs []uint) error
	NodeIDsForPlan(ctx context.Context, planID uint) ([]uint, error)
	PlanIDsForNode(ctx context.Context, nodeID uint) ([]uint, error)
	IsBound(ctx context.Context, planID, nodeID uint) (bool, error)
	DeleteByNode(ctx context.Context, nodeID uint) error
	DeleteByPlan(ctx context.Context, planID uint) error
}
