package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"meridian/internal/domain/entitlement"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/infrastructure/repository"
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

type settlementFixture struct {
	gdb *gorm.DB
	uc  *ReportTrafficUseCase
}

func setupSettlement(t *testing.T) *settlementFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = gdb.AutoMigrate(
		&models.UserModel{},
		&models.UserClientModel{},
		&models.PlanNodeModel{},
		&models.NodeTrafficModel{},
		&models.EntitlementModel{},
	)
	require.NoError(t, err)

	log := logger.NewLogger()
	uc := NewReportTrafficUseCase(
		repository.NewUserClientRepository(gdb, log),
		repository.NewUserRepository(gdb, log),
		repository.NewEntitlementRepository(gdb, log),
		repository.NewNodeTrafficRepository(gdb, log),
		db.NewTransactionManager(gdb),
		nil,
		log,
	)
	return &settlementFixture{gdb: gdb, uc: uc}
}

func (f *settlementFixture) seedUser(t *testing.T, id uint) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.gdb.Create(&models.UserModel{
		ID: id, Username: "alice", Email: "a@b.com", PasswordHash: "hash",
		Role: "user", Status: "active", CreatedAt: now, UpdatedAt: now,
	}).Error)
}

func (f *settlementFixture) seedClient(t *testing.T, userID uint, enabled bool) string {
	t.Helper()
	clientUUID := uuid.NewString()
	now := time.Now().UTC()
	require.NoError(t, f.gdb.Create(&models.UserClientModel{
		UserID: userID, UUID: clientUUID, Enabled: enabled, CreatedAt: now, UpdatedAt: now,
	}).Error)
	return clientUUID
}

func (f *settlementFixture) bindPlan(t *testing.T, planID, nodeID uint) {
	t.Helper()
	require.NoError(t, f.gdb.Create(&models.PlanNodeModel{PlanID: planID, NodeID: nodeID}).Error)
}

func (f *settlementFixture) seedEntitlement(t *testing.T, userID, planID uint, expire time.Time, total, used int64) uint {
	t.Helper()
	now := time.Now().UTC()
	m := &models.EntitlementModel{
		UserID: userID, GroupID: 1, PlanID: planID, Status: "active",
		OriginalStartAt: now.Add(-24 * time.Hour), OriginalExpireAt: expire,
		ServiceStartAt: now.Add(-24 * time.Hour), ServiceExpireAt: expire,
		TrafficTotalBytes: total, TrafficUsedBytes: used,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.gdb.Create(m).Error)
	return m.ID
}

func (f *settlementFixture) entitlementRow(t *testing.T, id uint) *models.EntitlementModel {
	t.Helper()
	var m models.EntitlementModel
	require.NoError(t, f.gdb.First(&m, id).Error)
	return &m
}

func TestReportTraffic_DrainsSoonestExpiryFirst(t *testing.T) {
	f := setupSettlement(t)
	now := time.Now().UTC()

	f.seedUser(t, 1)
	clientUUID := f.seedClient(t, 1, true)
	f.bindPlan(t, 3, 9)
	f.bindPlan(t, 4, 9)

	soonerID := f.seedEntitlement(t, 1, 3, now.Add(24*time.Hour), 500, 0)
	laterID := f.seedEntitlement(t, 1, 4, now.Add(48*time.Hour), 1000, 700)

	// bound to a different node, must stay untouched
	f.bindPlan(t, 7, 11)
	otherNodeID := f.seedEntitlement(t, 1, 7, now.Add(24*time.Hour), 500, 0)

	result, err := f.uc.Execute(context.Background(), ReportTrafficCommand{
		UUID: clientUUID, NodeID: 9, Upload: 400, Download: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, uint(1), result.UserID)
	assert.Equal(t, int64(600), result.SettledBytes)
	assert.Equal(t, int64(0), result.DroppedBytes)
	assert.Equal(t, 2, result.Entitlements)

	// the sooner-expiring row drained fully and flipped to exhausted
	sooner := f.entitlementRow(t, soonerID)
	assert.Equal(t, "exhausted", sooner.Status)
	assert.Equal(t, int64(500), sooner.TrafficUsedBytes)

	later := f.entitlementRow(t, laterID)
	assert.Equal(t, "active", later.Status)
	assert.Equal(t, int64(800), later.TrafficUsedBytes)

	other := f.entitlementRow(t, otherNodeID)
	assert.Equal(t, int64(0), other.TrafficUsedBytes)

	// denormalized user counter follows the ledger
	var u models.UserModel
	require.NoError(t, f.gdb.First(&u, 1).Error)
	assert.Equal(t, int64(600), u.TrafficUsed)

	// node daily aggregate recorded
	var nt models.NodeTrafficModel
	require.NoError(t, f.gdb.Where("node_id = ?", 9).First(&nt).Error)
	assert.Equal(t, int64(400), nt.UploadBytes)
	assert.Equal(t, int64(200), nt.DownloadBytes)
}

func TestReportTraffic_ExcessIsDropped(t *testing.T) {
	f := setupSettlement(t)
	now := time.Now().UTC()

	f.seedUser(t, 1)
	clientUUID := f.seedClient(t, 1, true)
	f.bindPlan(t, 3, 9)
	id := f.seedEntitlement(t, 1, 3, now.Add(24*time.Hour), 500, 0)

	result, err := f.uc.Execute(context.Background(), ReportTrafficCommand{
		UUID: clientUUID, NodeID: 9, Upload: 800, Download: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(500), result.SettledBytes)
	assert.Equal(t, int64(300), result.DroppedBytes)
	assert.Equal(t, "exhausted", f.entitlementRow(t, id).Status)
}

func TestReportTraffic_NoEligibleEntitlement(t *testing.T) {
	f := setupSettlement(t)
	now := time.Now().UTC()

	f.seedUser(t, 1)
	clientUUID := f.seedClient(t, 1, true)
	f.bindPlan(t, 3, 9)
	f.seedEntitlement(t, 1, 3, now.Add(24*time.Hour), 500, 500)

	_, err := f.uc.Execute(context.Background(), ReportTrafficCommand{
		UUID: clientUUID, NodeID: 9, Upload: 100, Download: 0,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	assert.Equal(t, "no_entitlement_for_node", appErr.Message)
}

func TestReportTraffic_UnlimitedTakesEverything(t *testing.T) {
	f := setupSettlement(t)
	now := time.Now().UTC()

	f.seedUser(t, 1)
	clientUUID := f.seedClient(t, 1, true)
	f.bindPlan(t, 3, 9)
	id := f.seedEntitlement(t, 1, 3, now.Add(24*time.Hour), entitlement.UnlimitedTraffic, 0)

	result, err := f.uc.Execute(context.Background(), ReportTrafficCommand{
		UUID: clientUUID, NodeID: 9, Upload: 1 << 32, Download: 1 << 32,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2<<32), result.SettledBytes)
	assert.Equal(t, int64(0), result.DroppedBytes)
	assert.Equal(t, "active", f.entitlementRow(t, id).Status)
}

func TestReportTraffic_ClientChecks(t *testing.T) {
	f := setupSettlement(t)

	t.Run("unknown uuid", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), ReportTrafficCommand{
			UUID: uuid.NewString(), NodeID: 9, Upload: 1,
		})
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	})

	t.Run("disabled uuid", func(t *testing.T) {
		f.seedUser(t, 1)
		clientUUID := f.seedClient(t, 1, false)

		_, err := f.uc.Execute(context.Background(), ReportTrafficCommand{
			UUID: clientUUID, NodeID: 9, Upload: 1,
		})
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
	})

	t.Run("rejects non-positive totals", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), ReportTrafficCommand{UUID: "x", NodeID: 9})
		assert.Error(t, err)
		_, err = f.uc.Execute(context.Background(), ReportTrafficCommand{UUID: "x", NodeID: 9, Upload: -5, Download: 10})
		assert.Error(t, err)
	})
}
