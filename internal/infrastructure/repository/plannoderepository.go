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

// PlanNodeRepositoryImpl implements the catalog.PlanNodeRepository interface
type PlanNodeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewPlanNodeRepository creates a new plan node binding repository instance
func NewPlanNodeRepository(gdb *gorm.DB, logger logger.Interface) catalog.PlanNodeRepository {
	return &PlanNodeRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *PlanNodeRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *PlanNodeRepositoryImpl) ReplaceBindings(ctx context.Context, planID uint, nodeIDs []uint) error {
	tx := r.conn(ctx)

	if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanNodeModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear plan bindings: %w", err)
	}

	if len(nodeIDs) == 0 {
		return nil
	}

	bindings := make([]models.PlanNodeModel, 0, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		bindings = append(bindings, models.PlanNodeModel{
			PlanID:   planID,
			NodeID:   nodeID,
			Priority: i,
		})
	}
	if err := tx.Create(&bindings).Error; err != nil {
		r.logger.Errorw("failed to create plan bindings", "plan_id", planID, "error", err)
		return fmt.Errorf("failed to create plan bindings: %w", err)
	}

	r.logger.Infow("plan bindings replaced", "plan_id", planID, "node_count", len(nodeIDs))
	return nil
}

func (r *PlanNodeRepositoryImpl) BindPlans(ctx context.Context, nodeID uint, planIDs []uint) error {
	if len(planIDs) == 0 {
		return nil
	}

	tx := r.conn(ctx)
	for _, planID := range planIDs {
		var count int64
		if err := tx.Model(&models.PlanNodeModel{}).
			Where("plan_id = ? AND node_id = ?", planID, nodeID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check plan binding: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&models.PlanNodeModel{PlanID: planID, NodeID: nodeID}).Error; err != nil {
			return fmt.Errorf("failed to bind plan %d to node %d: %w", planID, nodeID, err)
		}
	}
	return nil
}

func (r *PlanNodeRepositoryImpl) NodeIDsForPlan(ctx context.Context, planID uint) ([]uint, error) {
	var nodeIDs []uint
	err := r.conn(ctx).Model(&models.PlanNodeModel{}).
		Where("plan_id = ?", planID).
		Order("priority ASC").
		Pluck("node_id", &nodeIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list node bindings: %w", err)
	}
	return nodeIDs, nil
}

func (r *PlanNodeRepositoryImpl) PlanIDsForNode(ctx context.Context, nodeID uint) ([]uint, error) {
	var planIDs []uint
	err := r.conn(ctx).Model(&models.PlanNodeModel{}).
		Where("node_id = ?", nodeID).
		Pluck("plan_id", &planIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plan bindings: %w", err)
	}
	return planIDs, nil
}

func (r *PlanNodeRepositoryImpl) IsBound(ctx context.Context, planID, nodeID uint) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.PlanNodeModel{}).
		Where("plan_id = ? AND node_id = ?", planID, nodeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check plan binding: %w", err)
	}
	return count > 0, nil
}

func (r *PlanNodeRepositoryImpl) DeleteByNode(ctx context.Context, nodeID uint) error {
	if err := r.conn(ctx).Where("node_id = ?", nodeID).Delete(&models.PlanNodeModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete node bindings: %w", err)
	}
	return nil
}

func (r *PlanNodeRepositoryImpl) DeleteByPlan(ctx context.Context, planID uint) error {
	if err := r.conn(ctx).Where("plan_id = ?", planID).Delete(&models.PlanNodeModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete plan bindings: %w", err)
	}
	return nil
}
