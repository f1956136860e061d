package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	entitlementuc "meridian/internal/application/entitlement/usecases"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/infrastructure/repository"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

type payOrderFixture struct {
	gdb *gorm.DB
	uc  *PayOrderUseCase
}

func setupPayOrder(t *testing.T) *payOrderFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.UserModel{},
		&models.PlanModel{},
		&models.OrderModel{},
		&models.EntitlementModel{},
	))

	now := time.Now().UTC()
	require.NoError(t, gdb.Create(&models.UserModel{
		ID: 1, Username: "alice", Email: "a@b.com", PasswordHash: "hash",
		Role: "user", Status: "active", CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, gdb.Create(&models.PlanModel{
		ID: 3, GroupID: 2, Name: "pro-monthly", Price: 990, DurationDays: 30,
		TrafficLimitBytes: 10 * oneGB, Status: "enabled", IsPublic: true,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	log := logger.NewLogger()
	entRepo := repository.NewEntitlementRepository(gdb, log)
	uc := NewPayOrderUseCase(
		repository.NewOrderRepository(gdb, log),
		repository.NewUserRepository(gdb, log),
		entitlementuc.NewGrantEntitlementUseCase(entRepo, repository.NewPlanRepository(gdb, log), log),
		db.NewTransactionManager(gdb),
		log,
	)
	return &payOrderFixture{gdb: gdb, uc: uc}
}

func (f *payOrderFixture) seedPendingOrder(t *testing.T, createdAt time.Time) uint {
	t.Helper()
	m := &models.OrderModel{
		UserID: 1, PlanID: 3, OrderNo: "ORD-STALE-1", Amount: 990,
		Status: "pending", OrderType: "purchase", DurationDays: 30,
		TrafficBytes: 10 * oneGB, CreatedAt: createdAt,
	}
	require.NoError(t, f.gdb.Create(m).Error)
	return m.ID
}

func TestPayOrder_ExpiredWindow(t *testing.T) {
	t.Run("owner cannot pay past the window", func(t *testing.T) {
		f := setupPayOrder(t)
		orderID := f.seedPendingOrder(t, time.Now().UTC().Add(-2*time.Hour))

		_, err := f.uc.Execute(context.Background(), PayOrderCommand{OrderID: orderID, UserID: 1})
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)

		var row models.OrderModel
		require.NoError(t, f.gdb.First(&row, orderID).Error)
		assert.Equal(t, "pending", row.Status)
	})

	t.Run("admin settles a stale order", func(t *testing.T) {
		f := setupPayOrder(t)
		orderID := f.seedPendingOrder(t, time.Now().UTC().Add(-2*time.Hour))

		result, err := f.uc.Execute(context.Background(), PayOrderCommand{
			OrderID: orderID, UserID: 99, AsAdmin: true, PayMethod: "admin",
		})
		require.NoError(t, err)
		assert.NotZero(t, result.EntitlementID)

		var row models.OrderModel
		require.NoError(t, f.gdb.First(&row, orderID).Error)
		assert.Equal(t, "paid", row.Status)
		assert.Equal(t, "admin", row.PayMethod)
		require.NotNil(t, row.PaidAt)

		var ent models.EntitlementModel
		require.NoError(t, f.gdb.First(&ent, result.EntitlementID).Error)
		assert.Equal(t, "active", ent.Status)
		assert.Equal(t, 10*oneGB, ent.TrafficTotalBytes)
	})
}
