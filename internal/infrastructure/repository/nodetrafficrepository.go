package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meridian/internal/domain/node"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/db"
	"meridian/internal/shared/logger"
)

// NodeTrafficRepositoryImpl implements the node.TrafficRepository interface
type NodeTrafficRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewNodeTrafficRepository creates a new node traffic repository instance
func NewNodeTrafficRepository(gdb *gorm.DB, logger logger.Interface) node.TrafficRepository {
	return &NodeTrafficRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *NodeTrafficRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *NodeTrafficRepositoryImpl) AddDaily(ctx context.Context, nodeID uint, date string, upload, download int64) error {
	now := time.Now().UTC()
	model := models.NodeTrafficModel{
		NodeID:        nodeID,
		Date:          date,
		UploadBytes:   upload,
		DownloadBytes: download,
		Connections:   0,
		UpdatedAt:     now,
	}

	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"upload_bytes":   gorm.Expr("upload_bytes + ?", upload),
			"download_bytes": gorm.Expr("download_bytes + ?", download),
			"updated_at":     now,
		}),
	}).Create(&model).Error
	if err != nil {
		r.logger.Errorw("failed to add daily node traffic",
			"node_id", nodeID, "date", date, "error", err)
		return fmt.Errorf("failed to add daily node traffic: %w", err)
	}
	return nil
}

func (r *NodeTrafficRepositoryImpl) GetDaily(ctx context.Context, nodeID uint, date string) (*node.DailyTraffic, error) {
	var model models.NodeTrafficModel
	err := r.conn(ctx).
		Where("node_id = ? AND date = ?", nodeID, date).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &node.DailyTraffic{NodeID: nodeID, Date: date}, nil
		}
		return nil, fmt.Errorf("failed to get daily node traffic: %w", err)
	}
	return &node.DailyTraffic{
		NodeID:        model.NodeID,
		Date:          model.Date,
		UploadBytes:   model.UploadBytes,
		DownloadBytes: model.DownloadBytes,
		Connections:   model.Connections,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}

func (r *NodeTrafficRepositoryImpl) ListByNode(ctx context.Context, nodeID uint, fromDate, toDate string) ([]*node.DailyTraffic, error) {
	var ms []models.NodeTrafficModel
	err := r.conn(ctx).
		Where("node_id = ? AND date >= ? AND date <= ?", nodeID, fromDate, toDate).
		Order("date ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list node traffic: %w", err)
	}

	records := make([]*node.DailyTraffic, 0, len(ms))
	for i := range ms {
		records = append(records, &node.DailyTraffic{
			NodeID:        ms[i].NodeID,
			Date:          ms[i].Date,
			UploadBytes:   ms[i].UploadBytes,
			DownloadBytes: ms[i].DownloadBytes,
			Connections:   ms[i].Connections,
			UpdatedAt:     ms[i].UpdatedAt,
		})
	}
	return records, nil
}
