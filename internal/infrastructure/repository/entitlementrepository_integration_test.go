package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"meridian/internal/domain/entitlement"
	"meridian/internal/infrastructure/persistence/models"
	"meridian/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = gdb.AutoMigrate(
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
	)
	require.NoError(t, err)

	return gdb
}

func seedEntitlement(t *testing.T, gdb *gorm.DB, m *models.EntitlementModel) uint {
	t.Helper()
	require.NoError(t, gdb.Create(m).Error)
	return m.ID
}

func activeRow(userID, groupID, planID uint, expire time.Time, total, used int64) *models.EntitlementModel {
	now := time.Now().UTC()
	return &models.EntitlementModel{
		UserID:            userID,
		GroupID:           groupID,
		PlanID:            planID,
		Status:            "active",
		OriginalStartAt:   now.Add(-24 * time.Hour),
		OriginalExpireAt:  expire,
		ServiceStartAt:    now.Add(-24 * time.Hour),
		ServiceExpireAt:   expire,
		TrafficTotalBytes: total,
		TrafficUsedBytes:  used,
		TotalAmount:       100,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestEntitlementRepository_CreateAndGet(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewEntitlementRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	ent, err := entitlement.NewEntitlement(1, 2, 3, now, now.Add(30*24*time.Hour), 1<<30, 990, 7)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, ent))
	require.NotZero(t, ent.ID())

	got, err := repo.GetByID(ctx, ent.ID())
	require.NoError(t, err)
	assert.Equal(t, ent.UserID(), got.UserID())
	assert.Equal(t, ent.TrafficTotalBytes(), got.TrafficTotalBytes())
	assert.Equal(t, entitlement.StatusActive, got.Status())

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, entitlement.ErrEntitlementNotFound)
}

func TestEntitlementRepository_Update(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewEntitlementRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	id := seedEntitlement(t, gdb, activeRow(1, 2, 3, now.Add(24*time.Hour), 1000, 0))

	ent, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	ent.Consume(1000, now)
	require.NoError(t, repo.Update(ctx, ent))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusExhausted, got.Status())
	assert.Equal(t, int64(1000), got.TrafficUsedBytes())
}

func TestEntitlementRepository_ListUsableForNode(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewEntitlementRepository(gdb, logger.NewLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	// plans 3 and 4 are bound to node 9, plan 5 is not
	require.NoError(t, gdb.Create(&models.PlanNodeModel{PlanID: 3, NodeID: 9}).Error)
	require.NoError(t, gdb.Create(&models.PlanNodeModel{PlanID: 4, NodeID: 9}).Error)

	later := seedEntitlement(t, gdb, activeRow(1, 2, 3, now.Add(48*time.Hour), 1000, 0))
	sooner := seedEntitlement(t, gdb, activeRow(1, 2, 4, now.Add(24*time.Hour), 1000, 0))
	seedEntitlement(t, gdb, activeRow(1, 2, 5, now.Add(24*time.Hour), 1000, 0))    // unbound plan
	seedEntitlement(t, gdb, activeRow(1, 2, 3, now.Add(72*time.Hour), 1000, 1000)) // drained
	seedEntitlement(t, gdb, activeRow(1, 2, 3, now.Add(-time.Hour), 1000, 0))      // expired window
	seedEntitlement(t, gdb, activeRow(2, 2, 3, now.Add(24*time.Hour), 1000, 0))    // other user

	ents, err := repo.ListUsableForNode(ctx, 1, 9, now)
	require.NoError(t, err)
	require.Len(t, ents, 2)

	// soonest expiry drains first
	assert.Equal(t, sooner, ents[0].ID())
	assert.Equal(t, later, ents[1].ID())
}

func TestEntitlementRepository_ListActiveHoldings(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewEntitlementRepository(gdb, logger.NewLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, gdb.Create(&models.PlanGroupModel{ID: 1, GroupKey: "basic", Name: "Basic", Level: 1, Status: "enabled", IsPublic: true}).Error)
	require.NoError(t, gdb.Create(&models.PlanGroupModel{ID: 2, GroupKey: "pro", Name: "Pro", Level: 5, IsExclusive: true, Status: "enabled", IsPublic: true}).Error)

	seedEntitlement(t, gdb, activeRow(1, 1, 10, now.Add(24*time.Hour), 1000, 0))
	seedEntitlement(t, gdb, activeRow(1, 2, 20, now.Add(24*time.Hour), -1, 0))
	seedEntitlement(t, gdb, activeRow(1, 1, 11, now.Add(24*time.Hour), 1000, 1000)) // drained

	holdings, err := repo.ListActiveHoldings(ctx, 1, now)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	// highest group level first
	assert.Equal(t, uint(20), holdings[0].PlanID)
	assert.Equal(t, 5, holdings[0].GroupLevel)
	assert.True(t, holdings[0].GroupExclusive)
	assert.Equal(t, uint(10), holdings[1].PlanID)
}

func TestEntitlementRepository_SumGroupAmount(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewEntitlementRepository(gdb, logger.NewLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	a := activeRow(1, 2, 3, now.Add(24*time.Hour), 1000, 0)
	a.TotalAmount = 500
	seedEntitlement(t, gdb, a)

	b := activeRow(1, 2, 4, now.Add(24*time.Hour), 1000, 0)
	b.TotalAmount = 300
	b.Status = "expired"
	seedEntitlement(t, gdb, b)

	c := activeRow(1, 2, 5, now.Add(24*time.Hour), 1000, 0)
	c.TotalAmount = 999
	c.Status = "cancelled"
	seedEntitlement(t, gdb, c)

	total, err := repo.SumGroupAmount(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(800), total)

	total, err = repo.SumGroupAmount(ctx, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestEntitlementRepository_StatusSweeps(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewEntitlementRepository(gdb, logger.NewLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	pastID := seedEntitlement(t, gdb, activeRow(1, 2, 3, now.Add(-time.Hour), 1000, 0))
	drainedID := seedEntitlement(t, gdb, activeRow(1, 2, 4, now.Add(24*time.Hour), 1000, 1000))
	unlimitedID := seedEntitlement(t, gdb, activeRow(1, 2, 5, now.Add(24*time.Hour), -1, 5000))
	healthyID := seedEntitlement(t, gdb, activeRow(1, 2, 6, now.Add(24*time.Hour), 1000, 10))
	timeOnlyID := seedEntitlement(t, gdb, activeRow(1, 2, 7, now.Add(24*time.Hour), 0, 0))

	expired, err := repo.MarkExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	exhausted, err := repo.MarkExhausted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), exhausted)

	status := func(id uint) string {
		var m models.EntitlementModel
		require.NoError(t, gdb.First(&m, id).Error)
		return m.Status
	}
	assert.Equal(t, "expired", status(pastID))
	assert.Equal(t, "exhausted", status(drainedID))
	assert.Equal(t, "active", status(unlimitedID))
	assert.Equal(t, "active", status(healthyID))
	// zero-quota time-only rows carry no drainable allowance
	assert.Equal(t, "active", status(timeOnlyID))
}
