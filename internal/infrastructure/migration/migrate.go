// Package migration applies the database schema via gorm AutoMigrate.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/logger"
)

func allModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.UserClientModel{},
		&models.PlanGroupModel{},
		&models.PlanModel{},
		&models.PlanNodeModel{},
		&models.NodeModel{},
		&models.NodeTrafficModel{},
		&models.OrderModel{},
		&models.EntitlementModel{},
		&models.SigninRecordModel{},
		&models.SettingModel{},
	}
}

// Run applies the schema for all persistence models.
func Run(db *gorm.DB, log logger.Interface) error {
	for _, model := range allModels() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	log.Infow("database migration completed", "models", len(allModels()))
	return nil
}

// Status reports which tables exist.
func Status(db *gorm.DB) (map[string]bool, error) {
	status := make(map[string]bool)
	for _, model := range allModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}
		status[stmt.Schema.Table] = db.Migrator().HasTable(model)
	}
	return status, nil
}
