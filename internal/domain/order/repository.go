package order

import "context"

type Filter struct {
	UserID   *uint
	Status   *string
	Type     *string
	Page     int
	PageSize int
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, int64, error)

	// HasPendingByUser reports whether the user has any pending order.
	HasPendingByUser(ctx context.Context, userID uint) (bool, error)

	// GetLatestPaidByUserGroup returns the user's most recent paid order for
	// any plan in the group, or ErrOrderNotFound.
	GetLatestPaidByUserGroup(ctx context.Context, userID, groupID uint) (*Order, error)
}
