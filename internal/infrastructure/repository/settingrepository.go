package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/db"
	"meridian/internal/shared/logger"
)

// SettingRepository is a small KV store for panel settings.
type SettingRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(gdb *gorm.DB, logger logger.Interface) *SettingRepository {
	return &SettingRepository{
		db:     gdb,
		logger: logger,
	}
}

func (r *SettingRepository) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

// Get returns the value for key, or the empty string when unset.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var model models.SettingModel
	err := r.conn(ctx).Where("setting_key = ?", key).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return model.Value, nil
}

// Set upserts the value for key.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	model := models.SettingModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		r.logger.Errorw("failed to set setting", "key", key, "error", err)
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	r.logger.Infow("setting updated", "key", key)
	return nil
}

// All returns every setting as a map.
func (r *SettingRepository) All(ctx context.Context) (map[string]string, error) {
	var ms []models.SettingModel
	if err := r.conn(ctx).Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	settings := make(map[string]string, len(ms))
	for i := range ms {
		settings[ms[i].Key] = ms[i].Value
	}
	return settings, nil
}
