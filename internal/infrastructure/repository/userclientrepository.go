package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"meridian/internal/domain/user"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/db"
	"meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// UserClientRepositoryImpl implements the user.ClientRepository interface
type UserClientRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserClientRepository creates a new user client repository instance
func NewUserClientRepository(gdb *gorm.DB, logger logger.Interface) user.ClientRepository {
	return &UserClientRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *UserClientRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *UserClientRepositoryImpl) toDomain(model *models.UserClientModel) (*user.Client, error) {
	return user.ReconstructClient(
		model.ID,
		model.UserID,
		model.UUID,
		model.Remark,
		model.Enabled,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (r *UserClientRepositoryImpl) Create(ctx context.Context, c *user.Client) error {
	model := &models.UserClientModel{
		UserID:    c.UserID(),
		UUID:      c.UUID(),
		Remark:    c.Remark(),
		Enabled:   c.Enabled(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("client UUID already exists")
		}
		r.logger.Errorw("failed to create user client", "user_id", c.UserID(), "error", err)
		return fmt.Errorf("failed to create user client: %w", err)
	}

	if err := c.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set client ID: %w", err)
	}

	r.logger.Infow("user client created", "id", model.ID, "user_id", model.UserID)
	return nil
}

func (r *UserClientRepositoryImpl) Update(ctx context.Context, c *user.Client) error {
	if c.ID() == 0 {
		return fmt.Errorf("cannot update client without ID")
	}

	result := r.conn(ctx).Model(&models.UserClientModel{}).
		Where("id = ?", c.ID()).
		Updates(map[string]interface{}{
			"remark":     c.Remark(),
			"enabled":    c.Enabled(),
			"updated_at": c.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user client: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrClientNotFound
	}
	return nil
}

func (r *UserClientRepositoryImpl) GetByUUID(ctx context.Context, clientUUID string) (*user.Client, error) {
	var model models.UserClientModel
	if err := r.conn(ctx).Where("uuid = ?", clientUUID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by UUID: %w", err)
	}
	return r.toDomain(&model)
}

func (r *UserClientRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*user.Client, error) {
	var ms []models.UserClientModel
	if err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list user clients: %w", err)
	}

	clients := make([]*user.Client, 0, len(ms))
	for i := range ms {
		c, err := r.toDomain(&ms[i])
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct client %d: %w", ms[i].ID, err)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

func (r *UserClientRepositoryImpl) GetCanonicalByUser(ctx context.Context, userID uint) (*user.Client, error) {
	var model models.UserClientModel
	err := r.conn(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Order("id ASC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get canonical client: %w", err)
	}
	return r.toDomain(&model)
}
