package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"meridian/internal/domain/catalog"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/db"
	"meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// PlanGroupRepositoryImpl implements the catalog.PlanGroupRepository interface
type PlanGroupRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPlanGroupRepository creates a new plan group repository instance
func NewPlanGroupRepository(gdb *gorm.DB, logger logger.Interface) catalog.PlanGroupRepository {
	return &PlanGroupRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *PlanGroupRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *PlanGroupRepositoryImpl) toDomain(model *models.PlanGroupModel) (*catalog.PlanGroup, error) {
	return catalog.ReconstructPlanGroup(
		model.ID,
		model.GroupKey,
		model.Name,
		model.Level,
		model.IsExclusive,
		model.Status,
		model.IsPublic,
		model.SortOrder,
		model.Connections,
		model.SpeedLimitMbps,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *PlanGroupRepositoryImpl) Create(ctx context.Context, group *catalog.PlanGroup) error {
	model := &models.PlanGroupModel{
		GroupKey:       group.GroupKey(),
		Name:           group.Name(),
		Level:          group.Level(),
		IsExclusive:    group.IsExclusive(),
		Status:         string(group.Status()),
		IsPublic:       group.IsPublic(),
		SortOrder:      group.SortOrder(),
		Connections:    group.Connections(),
		SpeedLimitMbps: group.SpeedLimitMbps(),
		CreatedAt:      group.CreatedAt(),
		UpdatedAt:      group.UpdatedAt(),
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("group key already exists", group.GroupKey())
		}
		r.logger.Errorw("failed to create plan group", "group_key", group.GroupKey(), "error", err)
		return fmt.Errorf("failed to create plan group: %w", err)
	}

	if err := group.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set plan group ID: %w", err)
	}

	r.logger.Infow("plan group created", "id", model.ID, "group_key", model.GroupKey)
	return nil
}

func (r *PlanGroupRepositoryImpl) Update(ctx context.Context, group *catalog.PlanGroup) error {
	if group.ID() == 0 {
		return fmt.Errorf("cannot update plan group without ID")
	}

	result := r.conn(ctx).Model(&models.PlanGroupModel{}).
		Where("id = ?", group.ID()).
		Updates(map[string]interface{}{
			"name":             group.Name(),
			"level":            group.Level(),
			"is_exclusive":     group.IsExclusive(),
			"status":           string(group.Status()),
			"is_public":        group.IsPublic(),
			"sort_order":       group.SortOrder(),
			"connections":      group.Connections(),
			"speed_limit_mbps": group.SpeedLimitMbps(),
			"updated_at":       group.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan group", "id", group.ID(), "error", result.Error)
		return fmt.Errorf("failed to update plan group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrPlanGroupNotFound
	}
	return nil
}

func (r *PlanGroupRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.conn(ctx).Delete(&models.PlanGroupModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete plan group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrPlanGroupNotFound
	}
	r.logger.Infow("plan group deleted", "id", id)
	return nil
}

func (r *PlanGroupRepositoryImpl) GetByID(ctx context.Context, id uint) (*catalog.PlanGroup, error) {
	var model models.PlanGroupModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, catalog.ErrPlanGroupNotFound
		}
		return nil, fmt.Errorf("failed to get plan group: %w", err)
	}
	return r.toDomain(&model)
}

func (r *PlanGroupRepositoryImpl) GetByKey(ctx context.Context, groupKey string) (*catalog.PlanGroup, error) {
	var model models.PlanGroupModel
	if err := r.conn(ctx).Where("group_key = ?", groupKey).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, catalog.ErrPlanGroupNotFound
		}
		return nil, fmt.Errorf("failed to get plan group: %w", err)
	}
	return r.toDomain(&model)
}

func (r *PlanGroupRepositoryImpl) List(ctx context.Context, publicOnly bool) ([]*catalog.PlanGroup, error) {
	query := r.conn(ctx).Model(&models.PlanGroupModel{})
	if publicOnly {
		query = query.Where("is_public = ? AND status = ?", true, string(catalog.GroupStatusEnabled))
	}

	var ms []models.PlanGroupModel
	if err := query.Order("sort_order ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list plan groups: %w", err)
	}

	groups := make([]*catalog.PlanGroup, 0, len(ms))
	for i := range ms {
		g, err := r.toDomain(&ms[i])
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct plan group %d: %w", ms[i].ID, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (r *PlanGroupRepositoryImpl) ExistsByKey(ctx context.Context, groupKey string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.PlanGroupModel{}).
		Where("group_key = ?", groupKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check group key: %w", err)
	}
	return count > 0, nil
}
