package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"meridian/internal/domain/order"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/constants"
	"meridian/internal/shared/db"
	"meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
	"meridian/internal/shared/utils"
)

// OrderRepositoryImpl implements the order.Repository interface
type OrderRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(gdb *gorm.DB, logger logger.Interface) order.Repository {
	return &OrderRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *OrderRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *OrderRepositoryImpl) toDomain(model *models.OrderModel) (*order.Order, error) {
	return order.ReconstructOrder(
		model.ID,
		model.UserID,
		model.PlanID,
		model.OrderNo,
		model.Amount,
		model.PayMethod,
		model.Status,
		model.OrderType,
		model.DurationDays,
		model.TrafficBytes,
		model.Remark,
		model.CreatedAt,
		model.PaidAt,
	)
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, o *order.Order) error {
	model := &models.OrderModel{
		UserID:       o.UserID(),
		PlanID:       o.PlanID(),
		OrderNo:      o.OrderNo(),
		Amount:       o.Amount(),
		PayMethod:    o.PayMethod(),
		Status:       string(o.Status()),
		OrderType:    string(o.OrderType()),
		DurationDays: o.DurationDays(),
		TrafficBytes: o.TrafficBytes(),
		Remark:       o.Remark(),
		CreatedAt:    o.CreatedAt(),
		PaidAt:       o.PaidAt(),
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("order number already exists")
		}
		r.logger.Errorw("failed to create order",
			"user_id", o.UserID(), "plan_id", o.PlanID(), "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := o.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set order ID: %w", err)
	}

	r.logger.Infow("order created",
		"id", model.ID,
		"order_no", model.OrderNo,
		"user_id", model.UserID,
		"type", model.OrderType,
		"amount", model.Amount)

	return nil
}

func (r *OrderRepositoryImpl) Update(ctx context.Context, o *order.Order) error {
	if o.ID() == 0 {
		return fmt.Errorf("cannot update order without ID")
	}

	result := r.conn(ctx).Model(&models.OrderModel{}).
		Where("id = ?", o.ID()).
		Updates(map[string]interface{}{
			"status":     string(o.Status()),
			"pay_method": o.PayMethod(),
			"paid_at":    o.PaidAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update order", "id", o.ID(), "error", result.Error)
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id uint) (*order.Order, error) {
	var model models.OrderModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return r.toDomain(&model)
}

func (r *OrderRepositoryImpl) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.conn(ctx).Where("order_no = ?", orderNo).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return r.toDomain(&model)
}

func (r *OrderRepositoryImpl) List(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	query := r.conn(ctx).Model(&models.OrderModel{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("order_type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	p := utils.ValidatePagination(filter.Page, filter.PageSize)

	var ms []models.OrderModel
	if err := query.
		Order("id DESC").
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&ms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*order.Order, 0, len(ms))
	for i := range ms {
		o, err := r.toDomain(&ms[i])
		if err != nil {
			return nil, 0, fmt.Errorf("failed to reconstruct order %d: %w", ms[i].ID, err)
		}
		orders = append(orders, o)
	}
	return orders, total, nil
}

func (r *OrderRepositoryImpl) HasPendingByUser(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.OrderModel{}).
		Where("user_id = ? AND status = ?", userID, string(order.StatusPending)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count pending orders: %w", err)
	}
	return count > 0, nil
}

func (r *OrderRepositoryImpl) GetLatestPaidByUserGroup(ctx context.Context, userID, groupID uint) (*order.Order, error) {
	var model models.OrderModel
	err := r.conn(ctx).
		Where("user_id = ? AND status = ?", userID, string(order.StatusPaid)).
		Where("plan_id IN (?)", r.conn(ctx).
			Table(constants.TablePlans).
			Select("id").
			Where("group_id = ?", groupID)).
		Order("paid_at DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get latest paid order: %w", err)
	}
	return r.toDomain(&model)
}
