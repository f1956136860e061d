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

	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/infrastructure/repository"
	"meridian/internal/shared/logger"
)

const tenGB = int64(10_000_000_000)

func setupLedger(t *testing.T) (*gorm.DB, *GrantEntitlementUseCase, *RevokeEntitlementUseCase) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.PlanModel{}, &models.EntitlementModel{}))

	now := time.Now().UTC()
	require.NoError(t, gdb.Create(&models.PlanModel{
		ID: 1, GroupID: 2, Name: "pro-monthly", Price: 990, DurationDays: 30,
		TrafficLimitBytes: tenGB, Status: "enabled", IsPublic: true,
		CreatedAt: now, UpdatedAt: now,
	}).Error)

	log := logger.NewLogger()
	entRepo := repository.NewEntitlementRepository(gdb, log)
	planRepo := repository.NewPlanRepository(gdb, log)
	grant := NewGrantEntitlementUseCase(entRepo, planRepo, log)
	revoke := NewRevokeEntitlementUseCase(entRepo, log)
	return gdb, grant, revoke
}

func TestGrantEntitlement_StacksOntoSingleActiveRow(t *testing.T) {
	gdb, grant, _ := setupLedger(t)
	ctx := context.Background()

	first, err := grant.Execute(ctx, GrantEntitlementCommand{UserID: 7, PlanID: 1, OrderID: 100, Amount: 990})
	require.NoError(t, err)
	assert.False(t, first.Stacked)

	second, err := grant.Execute(ctx, GrantEntitlementCommand{UserID: 7, PlanID: 1, OrderID: 101, Amount: 990})
	require.NoError(t, err)
	assert.True(t, second.Stacked)
	assert.Equal(t, first.EntitlementID, second.EntitlementID)

	var count int64
	require.NoError(t, gdb.Model(&models.EntitlementModel{}).Where("user_id = ?", 7).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var row models.EntitlementModel
	require.NoError(t, gdb.First(&row, first.EntitlementID).Error)
	assert.Equal(t, 2*tenGB, row.TrafficTotalBytes)
	assert.Equal(t, int64(1980), row.TotalAmount)
	assert.Equal(t, uint(101), row.LastOrderID)

	// the repeat purchase lands at paidAt+30d, which the live window
	// already covers, so expiry does not move
	days := row.ServiceExpireAt.Sub(time.Now().UTC()).Hours() / 24
	assert.InDelta(t, 30, days, 0.1)
}

func TestGrantEntitlement_CancelledRowGetsReplacedNotRevived(t *testing.T) {
	gdb, grant, revoke := setupLedger(t)
	ctx := context.Background()

	first, err := grant.Execute(ctx, GrantEntitlementCommand{UserID: 7, PlanID: 1, OrderID: 100, Amount: 990})
	require.NoError(t, err)

	revoked, err := revoke.Execute(ctx, RevokeEntitlementCommand{
		EntitlementID: first.EntitlementID, DeductAmount: 990, Reason: "refund", FullRefund: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", revoked.Status)
	assert.True(t, revoked.RemovedFromPlan)

	second, err := grant.Execute(ctx, GrantEntitlementCommand{UserID: 7, PlanID: 1, OrderID: 102, Amount: 990})
	require.NoError(t, err)
	assert.False(t, second.Stacked)
	assert.NotEqual(t, first.EntitlementID, second.EntitlementID)

	var cancelled models.EntitlementModel
	require.NoError(t, gdb.First(&cancelled, first.EntitlementID).Error)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, int64(0), cancelled.TotalAmount)
}

func TestRevokeEntitlement_PartialDeductionRecomputesStatus(t *testing.T) {
	gdb, grant, revoke := setupLedger(t)
	ctx := context.Background()

	granted, err := grant.Execute(ctx, GrantEntitlementCommand{UserID: 7, PlanID: 1, OrderID: 100, Amount: 990})
	require.NoError(t, err)

	// mark some usage so the traffic floor is visible
	require.NoError(t, gdb.Model(&models.EntitlementModel{}).
		Where("id = ?", granted.EntitlementID).
		Update("traffic_used_bytes", int64(1_000_000_000)).Error)

	result, err := revoke.Execute(ctx, RevokeEntitlementCommand{
		EntitlementID: granted.EntitlementID,
		Days:          10,
		TrafficBytes:  tenGB,
		DeductAmount:  300,
		Reason:        "partial refund",
	})
	require.NoError(t, err)
	assert.Equal(t, "exhausted", result.Status)
	assert.True(t, result.RemovedFromPlan)

	var row models.EntitlementModel
	require.NoError(t, gdb.First(&row, granted.EntitlementID).Error)
	// total floors at the bytes already used
	assert.Equal(t, int64(1_000_000_000), row.TrafficTotalBytes)
	assert.Equal(t, int64(690), row.TotalAmount)
	days := row.ServiceExpireAt.Sub(time.Now().UTC()).Hours() / 24
	assert.InDelta(t, 20, days, 0.1)
}
