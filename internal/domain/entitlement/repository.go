package entitlement

import (
	"context"
	"time"
)

// ActiveHolding is a read-model row joining an active entitlement with its
// group's level and exclusivity for active-set resolution.
type ActiveHolding struct {
	EntitlementID   uint
	PlanID          uint
	GroupID         uint
	GroupLevel      int
	GroupExclusive  bool
	ServiceExpireAt time.Time
}

type Repository interface {
	Create(ctx context.Context, ent *Entitlement) error
	Update(ctx context.Context, ent *Entitlement) error
	GetByID(ctx context.Context, id uint) (*Entitlement, error)

	// GetActiveByUserGroupPlan returns the single active row for the tuple,
	// or ErrEntitlementNotFound.
	GetActiveByUserGroupPlan(ctx context.Context, userID, groupID, planID uint) (*Entitlement, error)

	ListByUser(ctx context.Context, userID uint) ([]*Entitlement, error)
	ListActiveByUser(ctx context.Context, userID uint) ([]*Entitlement, error)

	// ListActiveHoldings returns usable entitlements joined with group level
	// and exclusivity, ordered by group level desc then service expiry desc.
	ListActiveHoldings(ctx context.Context, userID uint, now time.Time) ([]ActiveHolding, error)

	// ListUsableForNode returns the user's usable entitlements whose plan is
	// bound to the node, ordered by service expiry asc then id asc.
	ListUsableForNode(ctx context.Context, userID, nodeID uint, now time.Time) ([]*Entitlement, error)

	// ListUserIDsWithNodeAccess returns distinct user ids holding a usable
	// entitlement bound to the node.
	ListUserIDsWithNodeAccess(ctx context.Context, nodeID uint, now time.Time) ([]uint, error)

	// GetLatestActiveByUser returns the user's active entitlement with the
	// latest service expiry, or ErrEntitlementNotFound.
	GetLatestActiveByUser(ctx context.Context, userID uint) (*Entitlement, error)

	// SumGroupAmount returns the cumulative amount across the user's
	// non-cancelled entitlements in the group.
	SumGroupAmount(ctx context.Context, userID, groupID uint) (int64, error)

	// MarkExpired and MarkExhausted are pure conditional updates, safe to run
	// concurrently with grants and settlements.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	MarkExhausted(ctx context.Context) (int64, error)
}
