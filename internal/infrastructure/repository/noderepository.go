package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"meridian/internal/domain/node"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/db"
	"meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// NodeRepositoryImpl implements the node.Repository interface
type NodeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewNodeRepository creates a new node repository instance
func NewNodeRepository(gdb *gorm.DB, logger logger.Interface) node.Repository {
	return &NodeRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *NodeRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *NodeRepositoryImpl) toDomain(model *models.NodeModel) (*node.Node, error) {
	var config map[string]interface{}
	if len(model.Config) > 0 {
		if err := json.Unmarshal(model.Config, &config); err != nil {
			return nil, fmt.Errorf("failed to decode node config: %w", err)
		}
	}
	return node.ReconstructNode(
		model.ID,
		model.Name,
		model.Address,
		model.Port,
		model.Protocol,
		config,
		model.Status,
		model.SortOrder,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func encodeNodeConfig(config map[string]interface{}) (datatypes.JSON, error) {
	if config == nil {
		return datatypes.JSON("{}"), nil
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node config: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (r *NodeRepositoryImpl) Create(ctx context.Context, n *node.Node) error {
	config, err := encodeNodeConfig(n.Config())
	if err != nil {
		return err
	}

	model := &models.NodeModel{
		Name:      n.Name(),
		Address:   n.Address(),
		Port:      n.Port(),
		Protocol:  n.Protocol().String(),
		Config:    config,
		Status:    string(n.Status()),
		SortOrder: n.SortOrder(),
		CreatedAt: n.CreatedAt(),
		UpdatedAt: n.UpdatedAt(),
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("node already registered",
				fmt.Sprintf("%s:%d/%s", n.Address(), n.Port(), n.Protocol()))
		}
		r.logger.Errorw("failed to create node",
			"address", n.Address(), "port", n.Port(), "protocol", n.Protocol(), "error", err)
		return fmt.Errorf("failed to create node: %w", err)
	}

	if err := n.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set node ID: %w", err)
	}

	r.logger.Infow("node created",
		"id", model.ID, "name", model.Name, "address", model.Address,
		"port", model.Port, "protocol", model.Protocol)
	return nil
}

func (r *NodeRepositoryImpl) Update(ctx context.Context, n *node.Node) error {
	if n.ID() == 0 {
		return fmt.Errorf("cannot update node without ID")
	}
	config, err := encodeNodeConfig(n.Config())
	if err != nil {
		return err
	}

	result := r.conn(ctx).Model(&models.NodeModel{}).
		Where("id = ?", n.ID()).
		Updates(map[string]interface{}{
			"name":       n.Name(),
			"address":    n.Address(),
			"port":       n.Port(),
			"protocol":   n.Protocol().String(),
			"config":     config,
			"status":     string(n.Status()),
			"sort_order": n.SortOrder(),
			"updated_at": n.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update node", "id", n.ID(), "error", result.Error)
		return fmt.Errorf("failed to update node: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return node.ErrNodeNotFound
	}
	return nil
}

func (r *NodeRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.conn(ctx).Delete(&models.NodeModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete node: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return node.ErrNodeNotFound
	}
	r.logger.Infow("node deleted", "id", id)
	return nil
}

func (r *NodeRepositoryImpl) GetByID(ctx context.Context, id uint) (*node.Node, error) {
	var model models.NodeModel
	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, node.ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return r.toDomain(&model)
}

func (r *NodeRepositoryImpl) GetByIdentity(ctx context.Context, address string, port int, protocol string) (*node.Node, error) {
	var model models.NodeModel
	err := r.conn(ctx).
		Where("address = ? AND port = ? AND protocol = ?", address, port, protocol).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, node.ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to get node by identity: %w", err)
	}
	return r.toDomain(&model)
}

func (r *NodeRepositoryImpl) List(ctx context.Context) ([]*node.Node, error) {
	var ms []models.NodeModel
	if err := r.conn(ctx).Order("sort_order ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *NodeRepositoryImpl) ListEnabled(ctx context.Context) ([]*node.Node, error) {
	var ms []models.NodeModel
	if err := r.conn(ctx).
		Where("status = ?", string(node.StatusEnabled)).
		Order("sort_order ASC, id ASC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list enabled nodes: %w", err)
	}
	return r.toDomainList(ms)
}

func (r *NodeRepositoryImpl) toDomainList(ms []models.NodeModel) ([]*node.Node, error) {
	nodes := make([]*node.Node, 0, len(ms))
	for i := range ms {
		n, err := r.toDomain(&ms[i])
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct node %d: %w", ms[i].ID, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
