package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"meridian/internal/domain/catalog"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/db"
	"meridian/internal/shared/logger"
)

// PlanRepositoryImpl implements the catalog.PlanRepository interface
type PlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(gdb *gorm.DB, logger logger.Interface) catalog.PlanRepository {
	return &PlanRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *PlanRepositoryImpl) toDomain(model *models.PlanModel) (*catalog.Plan, error) {
	return catalog.ReconstructPlan(
		model.ID,
		model.GroupID,
		model.Name,
		model.Description,
		model.Price,
		model.DurationDays,
		model.TrafficLimitBytes,
		model.Status,
		model.IsPublic,
		model.SortOrder,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *catalog.Plan) error {
	model := &models.PlanModel{
		GroupID:           plan.GroupID(),
		Name:              plan.Name(),
		Description:       plan.Description(),
		Price:             plan.Price(),
		DurationDays:      plan.DurationDays(),
		TrafficLimitBytes: plan.TrafficLimitBytes(),
		Status:            string(plan.Status()),
		IsPublic:          plan.IsPublic(),
		SortOrder:         plan.SortOrder(),
		CreatedAt:         plan.CreatedAt(),
		UpdatedAt:         plan.UpdatedAt(),
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "group_id", plan.GroupID(), "name", plan.Name(), "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if err := plan.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set plan ID: %w", err)
	}

	r.logger.Infow("plan created", "id", model.ID, "group_id", model.GroupID, "name", model.Name)
	return nil
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *catalog.Plan) error {
	if plan.ID() == 0 {
		return fmt.Errorf("cannot update plan without ID")
	}

	result := r.conn(ctx).Model(&models.PlanModel{}).
		Where("id = ?", plan.ID()).
		Updates(map[string]interface{}{
			"name":                plan.Name(),
			"description":         plan.Description(),
			"price":               plan.Price(),
			"duration_days":       plan.DurationDays(),
			"traffic_limit_bytes": plan.TrafficLimitBytes(),
			"status":              string(plan.Status()),
			"is_public":           plan.IsPublic(),
			"sort_order":          plan.SortOrder(),
			"updated_at":          plan.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "id", plan.ID(), "error", result.Error)
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.conn(ctx).Delete(&models.PlanModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrPlanNotFound
	}
	r.logger.Infow("plan deleted", "id", id)
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*catalog.Plan, error) {
	var model models.PlanModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, catalog.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return r.toDomain(&model)
}

func (r *PlanRepositoryImpl) ListByGroup(ctx context.Context, groupID uint) ([]*catalog.Plan, error) {
	var ms []models.PlanModel
	if err := r.conn(ctx).
		Where("group_id = ?", groupID).
		Order("sort_order ASC, id ASC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *PlanRepositoryImpl) List(ctx context.Context, publicOnly bool) ([]*catalog.Plan, error) {
	query := r.conn(ctx).Model(&models.PlanModel{})
	if publicOnly {
		query = query.Where("is_public = ? AND status = ?", true, string(catalog.PlanStatusEnabled))
	}

	var ms []models.PlanModel
	if err := query.Order("sort_order ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *PlanRepositoryImpl) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.PlanModel{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count plans: %w", err)
	}
	return count, nil
}

func (r *PlanRepositoryImpl) toDomainList(ms []models.PlanModel) ([]*catalog.Plan, error) {
	plans := make([]*catalog.Plan, 0, len(ms))
	for i := range ms {
		p, err := r.toDomain(&ms[i])
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct plan %d: %w", ms[i].ID, err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}
