package usecases

import (
	"context"
	"strings"
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

const oneGB = int64(1_000_000_000)

type unsubscribeFixture struct {
	gdb *gorm.DB
	uc  *UnsubscribeUseCase
}

func setupUnsubscribe(t *testing.T) *unsubscribeFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.UserModel{},
		&models.OrderModel{},
		&models.EntitlementModel{},
	))

	log := logger.NewLogger()
	entRepo := repository.NewEntitlementRepository(gdb, log)
	uc := NewUnsubscribeUseCase(
		repository.NewOrderRepository(gdb, log),
		repository.NewUserRepository(gdb, log),
		entRepo,
		entitlementuc.NewRevokeEntitlementUseCase(entRepo, log),
		db.NewTransactionManager(gdb),
		log,
	)
	return &unsubscribeFixture{gdb: gdb, uc: uc}
}

func (f *unsubscribeFixture) seed(t *testing.T, used int64) uint {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.gdb.Create(&models.UserModel{
		ID: 1, Username: "alice", Email: "a@b.com", PasswordHash: "hash",
		Role: "user", Status: "active", TrafficTotal: 10 * oneGB, TrafficUsed: used,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	m := &models.EntitlementModel{
		UserID: 1, GroupID: 2, PlanID: 3, Status: "active",
		OriginalStartAt: now, OriginalExpireAt: now.Add(30 * 24 * time.Hour),
		ServiceStartAt: now, ServiceExpireAt: now.Add(30 * 24 * time.Hour),
		TrafficTotalBytes: 10 * oneGB, TrafficUsedBytes: used, TotalAmount: 990,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.gdb.Create(m).Error)
	return m.ID
}

func TestUnsubscribe_FullRefundCancelsAndWritesNegativeOrder(t *testing.T) {
	f := setupUnsubscribe(t)
	entID := f.seed(t, oneGB)

	result, err := f.uc.Execute(context.Background(), UnsubscribeCommand{
		UserID: 1, EntitlementID: entID, Reason: "changed my mind", FullRefund: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Status)
	assert.True(t, result.RemovedFromPlan)
	assert.True(t, strings.HasPrefix(result.OrderNo, "UNSUB"))

	var row models.EntitlementModel
	require.NoError(t, f.gdb.First(&row, entID).Error)
	assert.Equal(t, "cancelled", row.Status)
	assert.Equal(t, int64(0), row.TotalAmount)
	// allowance shrinks by the refunded headroom, flooring at used bytes
	assert.Equal(t, oneGB, row.TrafficTotalBytes)
	assert.Equal(t, "changed my mind", row.CancelReason)
	require.NotNil(t, row.CancelledAt)

	// the refund order carries the withdrawn value as negative deltas
	var o models.OrderModel
	require.NoError(t, f.gdb.First(&o, result.OrderID).Error)
	assert.Equal(t, "unsubscribe", o.OrderType)
	assert.Equal(t, "paid", o.Status)
	assert.Equal(t, int64(-990), o.Amount)
	assert.Equal(t, -9*oneGB, o.TrafficBytes)
	assert.Negative(t, o.DurationDays)

	// compat total shrinks by the refunded headroom, never below used
	var u models.UserModel
	require.NoError(t, f.gdb.First(&u, 1).Error)
	assert.Equal(t, oneGB, u.TrafficTotal)
}

func TestUnsubscribe_PartialDeduction(t *testing.T) {
	f := setupUnsubscribe(t)
	entID := f.seed(t, 0)

	result, err := f.uc.Execute(context.Background(), UnsubscribeCommand{
		UserID:        1,
		EntitlementID: entID,
		DeductDays:    10,
		DeductBytes:   2 * oneGB,
		DeductAmount:  300,
		Reason:        "downgrade",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", result.Status)
	assert.False(t, result.RemovedFromPlan)

	var row models.EntitlementModel
	require.NoError(t, f.gdb.First(&row, entID).Error)
	assert.Equal(t, 8*oneGB, row.TrafficTotalBytes)
	assert.Equal(t, int64(690), row.TotalAmount)
}

func TestUnsubscribe_OverDeductionRejected(t *testing.T) {
	f := setupUnsubscribe(t)
	entID := f.seed(t, 0)

	cases := []struct {
		name string
		cmd  UnsubscribeCommand
	}{
		{"days beyond remaining", UnsubscribeCommand{UserID: 1, EntitlementID: entID, DeductDays: 31}},
		{"bytes beyond remaining", UnsubscribeCommand{UserID: 1, EntitlementID: entID, DeductBytes: 11 * oneGB}},
		{"amount beyond paid", UnsubscribeCommand{UserID: 1, EntitlementID: entID, DeductAmount: 1000}},
		{"negative deduction", UnsubscribeCommand{UserID: 1, EntitlementID: entID, DeductDays: -1}},
		{"nothing to deduct", UnsubscribeCommand{UserID: 1, EntitlementID: entID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), tc.cmd)
			require.Error(t, err)
			appErr, ok := err.(*apperrors.AppError)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		})
	}

	// nothing was written
	var orders int64
	require.NoError(t, f.gdb.Model(&models.OrderModel{}).Count(&orders).Error)
	assert.Equal(t, int64(0), orders)
}

func TestUnsubscribe_OwnershipAndTerminalState(t *testing.T) {
	f := setupUnsubscribe(t)
	entID := f.seed(t, 0)

	t.Run("foreign entitlement hidden", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), UnsubscribeCommand{
			UserID: 99, EntitlementID: entID, FullRefund: true,
		})
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), UnsubscribeCommand{
			UserID: 99, EntitlementID: entID, FullRefund: true, AsAdmin: true,
		})
		require.NoError(t, err)
	})

	t.Run("cancelled row conflicts", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), UnsubscribeCommand{
			UserID: 1, EntitlementID: entID, FullRefund: true,
		})
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	})
}
