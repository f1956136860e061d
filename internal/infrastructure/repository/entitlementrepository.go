package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"meridian/internal/domain/entitlement"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/constants"
	"meridian/internal/shared/db"
	"meridian/internal/shared/logger"
)

// EntitlementRepositoryImpl implements the entitlement.Repository interface
type EntitlementRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewEntitlementRepository creates a new entitlement repository instance
func NewEntitlementRepository(gdb *gorm.DB, logger logger.Interface) entitlement.Repository {
	return &EntitlementRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *EntitlementRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *EntitlementRepositoryImpl) toModel(ent *entitlement.Entitlement) *models.EntitlementModel {
	return &models.EntitlementModel{
		ID:                ent.ID(),
		UserID:            ent.UserID(),
		GroupID:           ent.GroupID(),
		PlanID:            ent.PlanID(),
		Status:            ent.Status().String(),
		OriginalStartAt:   ent.OriginalStartAt(),
		OriginalExpireAt:  ent.OriginalExpireAt(),
		ServiceStartAt:    ent.ServiceStartAt(),
		ServiceExpireAt:   ent.ServiceExpireAt(),
		TrafficTotalBytes: ent.TrafficTotalBytes(),
		TrafficUsedBytes:  ent.TrafficUsedBytes(),
		TotalAmount:       ent.TotalAmount(),
		CancelReason:      ent.CancelReason(),
		CancelledAt:       ent.CancelledAt(),
		LastOrderID:       ent.LastOrderID(),
		CreatedAt:         ent.CreatedAt(),
		UpdatedAt:         ent.UpdatedAt(),
	}
}

func (r *EntitlementRepositoryImpl) toDomain(model *models.EntitlementModel) (*entitlement.Entitlement, error) {
	return entitlement.ReconstructEntitlement(
		model.ID,
		model.UserID,
		model.GroupID,
		model.PlanID,
		model.Status,
		model.OriginalStartAt,
		model.OriginalExpireAt,
		model.ServiceStartAt,
		model.ServiceExpireAt,
		model.TrafficTotalBytes,
		model.TrafficUsedBytes,
		model.TotalAmount,
		model.CancelReason,
		model.CancelledAt,
		model.LastOrderID,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *EntitlementRepositoryImpl) toDomainList(ms []models.EntitlementModel) ([]*entitlement.Entitlement, error) {
	ents := make([]*entitlement.Entitlement, 0, len(ms))
	for i := range ms {
		ent, err := r.toDomain(&ms[i])
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct entitlement %d: %w", ms[i].ID, err)
		}
		ents = append(ents, ent)
	}
	return ents, nil
}

func (r *EntitlementRepositoryImpl) Create(ctx context.Context, ent *entitlement.Entitlement) error {
	model := r.toModel(ent)

	if err := r.conn(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create entitlement",
			"user_id", ent.UserID(),
			"group_id", ent.GroupID(),
			"plan_id", ent.PlanID(),
			"error", err)
		return fmt.Errorf("failed to create entitlement: %w", err)
	}

	if err := ent.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set entitlement ID: %w", err)
	}

	r.logger.Infow("entitlement created",
		"id", model.ID,
		"user_id", model.UserID,
		"group_id", model.GroupID,
		"plan_id", model.PlanID)

	return nil
}

func (r *EntitlementRepositoryImpl) Update(ctx context.Context, ent *entitlement.Entitlement) error {
	if ent.ID() == 0 {
		return fmt.Errorf("cannot update entitlement without ID")
	}
	model := r.toModel(ent)

	result := r.conn(ctx).Model(&models.EntitlementModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"original_expire_at":  model.OriginalExpireAt,
			"service_expire_at":   model.ServiceExpireAt,
			"traffic_total_bytes": model.TrafficTotalBytes,
			"traffic_used_bytes":  model.TrafficUsedBytes,
			"total_amount":        model.TotalAmount,
			"cancel_reason":       model.CancelReason,
			"cancelled_at":        model.CancelledAt,
			"last_order_id":       model.LastOrderID,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update entitlement", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update entitlement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entitlement.ErrEntitlementNotFound
	}
	return nil
}

func (r *EntitlementRepositoryImpl) GetByID(ctx context.Context, id uint) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entitlement.ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	return r.toDomain(&model)
}

func (r *EntitlementRepositoryImpl) GetActiveByUserGroupPlan(ctx context.Context, userID, groupID, planID uint) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel
	err := r.conn(ctx).
		Where("user_id = ? AND group_id = ? AND plan_id = ? AND status = ?",
			userID, groupID, planID, entitlement.StatusActive.String()).
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entitlement.ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("failed to get active entitlement: %w", err)
	}
	return r.toDomain(&model)
}

func (r *EntitlementRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*entitlement.Entitlement, error) {
	var ms []models.EntitlementModel
	if err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *EntitlementRepositoryImpl) ListActiveByUser(ctx context.Context, userID uint) ([]*entitlement.Entitlement, error) {
	var ms []models.EntitlementModel
	if err := r.conn(ctx).
		Where("user_id = ? AND status = ?", userID, entitlement.StatusActive.String()).
		Order("service_expire_at DESC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list active entitlements: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *EntitlementRepositoryImpl) ListActiveHoldings(ctx context.Context, userID uint, now time.Time) ([]entitlement.ActiveHolding, error) {
	var holdings []entitlement.ActiveHolding
	err := r.conn(ctx).
		Table(constants.TableEntitlements+" AS e").
		Select("e.id AS entitlement_id, e.plan_id, e.group_id, g.level AS group_level, g.is_exclusive AS group_exclusive, e.service_expire_at").
		Joins("JOIN "+constants.TablePlanGroups+" AS g ON g.id = e.group_id").
		Where("e.user_id = ? AND e.status = ? AND e.service_expire_at > ?", userID, entitlement.StatusActive.String(), now).
		Where("e.traffic_total_bytes < 0 OR e.traffic_used_bytes < e.traffic_total_bytes").
		Order("g.level DESC, e.service_expire_at DESC").
		Scan(&holdings).Error
	if err != nil {
		r.logger.Errorw("failed to list active holdings", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list active holdings: %w", err)
	}
	return holdings, nil
}

func (r *EntitlementRepositoryImpl) ListUsableForNode(ctx context.Context, userID, nodeID uint, now time.Time) ([]*entitlement.Entitlement, error) {
	var ms []models.EntitlementModel
	err := r.conn(ctx).
		Where("user_id = ? AND status = ? AND service_expire_at > ?", userID, entitlement.StatusActive.String(), now).
		Where("traffic_total_bytes < 0 OR traffic_used_bytes < traffic_total_bytes").
		Where("plan_id IN (?)", r.conn(ctx).
			Table(constants.TablePlanNodes).
			Select("plan_id").
			Where("node_id = ?", nodeID)).
		Order("service_expire_at ASC, id ASC").
		Find(&ms).Error
	if err != nil {
		r.logger.Errorw("failed to list usable entitlements for node",
			"user_id", userID, "node_id", nodeID, "error", err)
		return nil, fmt.Errorf("failed to list usable entitlements for node: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *EntitlementRepositoryImpl) ListUserIDsWithNodeAccess(ctx context.Context, nodeID uint, now time.Time) ([]uint, error) {
	var userIDs []uint
	err := r.conn(ctx).
		Model(&models.EntitlementModel{}).
		Distinct("user_id").
		Where("status = ? AND service_expire_at > ?", entitlement.StatusActive.String(), now).
		Where("traffic_total_bytes < 0 OR traffic_used_bytes < traffic_total_bytes").
		Where("plan_id IN (?)", r.conn(ctx).
			Table(constants.TablePlanNodes).
			Select("plan_id").
			Where("node_id = ?", nodeID)).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users with node access: %w", err)
	}
	return userIDs, nil
}

func (r *EntitlementRepositoryImpl) GetLatestActiveByUser(ctx context.Context, userID uint) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel
	err := r.conn(ctx).
		Where("user_id = ? AND status = ?", userID, entitlement.StatusActive.String()).
		Order("service_expire_at DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entitlement.ErrEntitlementNotFound
		}
		return nil, fmt.Errorf("failed to get latest active entitlement: %w", err)
	}
	return r.toDomain(&model)
}

func (r *EntitlementRepositoryImpl) SumGroupAmount(ctx context.Context, userID, groupID uint) (int64, error) {
	var total int64
	err := r.conn(ctx).
		Model(&models.EntitlementModel{}).
		Where("user_id = ? AND group_id = ? AND status <> ?", userID, groupID, entitlement.StatusCancelled.String()).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum group amount: %w", err)
	}
	return total, nil
}

func (r *EntitlementRepositoryImpl) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.conn(ctx).
		Model(&models.EntitlementModel{}).
		Where("status = ? AND service_expire_at <= ?", entitlement.StatusActive.String(), now).
		Updates(map[string]interface{}{
			"status":     entitlement.StatusExpired.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to mark expired entitlements", "error", result.Error)
		return 0, fmt.Errorf("failed to mark expired entitlements: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *EntitlementRepositoryImpl) MarkExhausted(ctx context.Context) (int64, error) {
	result := r.conn(ctx).
		Model(&models.EntitlementModel{}).
		Where("status = ? AND traffic_total_bytes > 0 AND traffic_used_bytes >= traffic_total_bytes",
			entitlement.StatusActive.String()).
		Updates(map[string]interface{}{
			"status":     entitlement.StatusExhausted.String(),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to mark exhausted entitlements", "error", result.Error)
		return 0, fmt.Errorf("failed to mark exhausted entitlements: %w", result.Error)
	}
	return result.RowsAffected, nil
}
