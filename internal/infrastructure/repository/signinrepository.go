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

// SigninRepositoryImpl implements the user.SigninRepository interface
type SigninRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSigninRepository creates a new signin record repository instance
func NewSigninRepository(gdb *gorm.DB, logger logger.Interface) user.SigninRepository {
	return &SigninRepositoryImpl{
		db:     gdb,
		logger: logger,
	}
}

func (r *SigninRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *SigninRepositoryImpl) toDomain(model *models.SigninRecordModel) (*user.SigninRecord, error) {
	return user.ReconstructSigninRecord(
		model.ID,
		model.UserID,
		model.Date,
		model.BonusBytes,
		model.CreatedAt,
	)
}

func (r *SigninRepositoryImpl) Create(ctx context.Context, rec *user.SigninRecord) error {
	model := &models.SigninRecordModel{
		UserID:     rec.UserID(),
		Date:       rec.Date(),
		BonusBytes: rec.BonusBytes(),
		CreatedAt:  rec.CreatedAt(),
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return user.ErrSigninExists
		}
		r.logger.Errorw("failed to create signin record",
			"user_id", rec.UserID(), "date", rec.Date(), "error", err)
		return fmt.Errorf("failed to create signin record: %w", err)
	}

	if err := rec.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set signin record ID: %w", err)
	}
	return nil
}

func (r *SigninRepositoryImpl) GetByUserAndDate(ctx context.Context, userID uint, date string) (*user.SigninRecord, error) {
	var model models.SigninRecordModel
	err := r.conn(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get signin record: %w", err)
	}
	return r.toDomain(&model)
}

func (r *SigninRepositoryImpl) GetLatestByUser(ctx context.Context, userID uint) (*user.SigninRecord, error) {
	var model models.SigninRecordModel
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest signin record: %w", err)
	}
	return r.toDomain(&model)
}
