package usecases

import (
	"context"

	"meridian/internal/domain/order"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

// ListOrdersCommand filters the order list. UserID zero lists all users,
// which only the admin surface exposes.
type ListOrdersCommand struct {
	UserID     uint
	Status     string
	Type       string
	Pagination utils.Pagination
}

// OrderView is the read model returned to transports.
type OrderView struct {
	ID           uint   `json:"id"`
	OrderNo      string `json:"order_no"`
	UserID       uint   `json:"user_id"`
	PlanID       uint   `json:"plan_id"`
	Amount       int64  `json:"amount"`
	PayMethod    string `json:"pay_method,omitempty"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	DurationDays int    `json:"duration_days"`
	TrafficBytes int64  `json:"traffic_bytes"`
	Remark       string `json:"remark,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	PaidAt       *int64 `json:"paid_at,omitempty"`
	PayExpireAt  *int64 `json:"pay_expire_at,omitempty"`
}

// ListOrdersResult contains the page of orders
type ListOrdersResult struct {
	Orders []OrderView
	Total  int64
}

// ListOrdersUseCase lists orders newest first.
type ListOrdersUseCase struct {
	orderRepo order.Repository
	logger    logger.Interface
}

// NewListOrdersUseCase creates a new instance of ListOrdersUseCase
func NewListOrdersUseCase(orderRepo order.Repository, logger logger.Interface) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo, logger: logger}
}

// Execute lists the orders.
func (uc *ListOrdersUseCase) Execute(ctx context.Context, cmd ListOrdersCommand) (*ListOrdersResult, error) {
	filter := order.Filter{
		Page:     cmd.Pagination.Page,
		PageSize: cmd.Pagination.PageSize,
	}
	if cmd.UserID != 0 {
		filter.UserID = &cmd.UserID
	}
	if cmd.Status != "" {
		filter.Status = &cmd.Status
	}
	if cmd.Type != "" {
		filter.Type = &cmd.Type
	}

	orders, total, err := uc.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return &ListOrdersResult{Orders: views, Total: total}, nil
}

func toOrderView(o *order.Order) OrderView {
	v := OrderView{
		ID:           o.ID(),
		OrderNo:      o.OrderNo(),
		UserID:       o.UserID(),
		PlanID:       o.PlanID(),
		Amount:       o.Amount(),
		PayMethod:    o.PayMethod(),
		Status:       string(o.Status()),
		Type:         string(o.OrderType()),
		DurationDays: o.DurationDays(),
		TrafficBytes: o.TrafficBytes(),
		Remark:       o.Remark(),
		CreatedAt:    o.CreatedAt().Unix(),
	}
	if paidAt := o.PaidAt(); paidAt != nil {
		ts := paidAt.Unix()
		v.PaidAt = &ts
	}
	if o.Status() == order.StatusPending {
		ts := o.PayExpireAt().Unix()
		v.PayExpireAt = &ts
	}
	return v
}
