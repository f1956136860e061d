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
	"meridian/internal/shared/db"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

type signinFixture struct {
	gdb *gorm.DB
	log logger.Interface
}

func setupSignin(t *testing.T) *signinFixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.UserModel{},
		&models.SigninRecordModel{},
		&models.EntitlementModel{},
		&models.OrderModel{},
		&models.PlanGroupModel{},
		&models.PlanModel{},
	))
	return &signinFixture{gdb: gdb, log: logger.NewLogger()}
}

func (f *signinFixture) useCase(maxBonus int64) *DailySigninUseCase {
	return NewDailySigninUseCase(
		repository.NewUserRepository(f.gdb, f.log),
		repository.NewSigninRepository(f.gdb, f.log),
		repository.NewEntitlementRepository(f.gdb, f.log),
		repository.NewOrderRepository(f.gdb, f.log),
		repository.NewPlanGroupRepository(f.gdb, f.log),
		repository.NewPlanRepository(f.gdb, f.log),
		db.NewTransactionManager(f.gdb),
		maxBonus,
		10,
		f.log,
	)
}

func (f *signinFixture) seedUser(t *testing.T, id uint, status string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.gdb.Create(&models.UserModel{
		ID: id, Username: "alice", Email: "a@b.com", PasswordHash: "hash",
		Role: "user", Status: status, CreatedAt: now, UpdatedAt: now,
	}).Error)
}

func (f *signinFixture) seedSigninCatalog(t *testing.T) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.gdb.Create(&models.PlanGroupModel{
		ID: 50, GroupKey: "signin", Name: "Signin", Status: "enabled", IsPublic: false,
		CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(t, f.gdb.Create(&models.PlanModel{
		ID: 51, GroupID: 50, Name: "signin-bonus", DurationDays: 1,
		Status: "enabled", IsPublic: false, CreatedAt: now, UpdatedAt: now,
	}).Error)
}

func (f *signinFixture) seedActiveEntitlement(t *testing.T, userID uint, expire time.Time) uint {
	t.Helper()
	now := time.Now().UTC()
	m := &models.EntitlementModel{
		UserID: userID, GroupID: 2, PlanID: 1, Status: "active",
		OriginalStartAt: now.Add(-time.Hour), OriginalExpireAt: expire,
		ServiceStartAt: now.Add(-time.Hour), ServiceExpireAt: expire,
		TrafficTotalBytes: 1000, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.gdb.Create(m).Error)
	return m.ID
}

func TestDailySignin_IdempotentPerDay(t *testing.T) {
	f := setupSignin(t)
	f.seedUser(t, 1, "active")
	f.seedSigninCatalog(t)
	uc := f.useCase(1000)

	first, err := uc.Execute(context.Background(), DailySigninCommand{UserID: 1})
	require.NoError(t, err)
	assert.False(t, first.AlreadySigned)
	assert.Equal(t, 1, first.Streak)
	assert.GreaterOrEqual(t, first.BonusBytes, int64(0))
	assert.LessOrEqual(t, first.BonusBytes, int64(1000))

	second, err := uc.Execute(context.Background(), DailySigninCommand{UserID: 1})
	require.NoError(t, err)
	assert.True(t, second.AlreadySigned)
	assert.Equal(t, first.BonusBytes, second.BonusBytes)
	assert.Equal(t, first.Date, second.Date)

	// no double grant: exactly one record, one audit order, one bonus applied
	var records int64
	require.NoError(t, f.gdb.Model(&models.SigninRecordModel{}).Where("user_id = ?", 1).Count(&records).Error)
	assert.Equal(t, int64(1), records)

	var orders []models.OrderModel
	require.NoError(t, f.gdb.Where("user_id = ?", 1).Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, "signin", orders[0].OrderType)
	assert.Equal(t, "paid", orders[0].Status)
	assert.Equal(t, int64(0), orders[0].Amount)

	var u models.UserModel
	require.NoError(t, f.gdb.First(&u, 1).Error)
	assert.Equal(t, first.BonusBytes, u.TrafficTotal)
	assert.Equal(t, 1, u.SigninStreak)
}

func TestDailySignin_ExtendsLatestActiveEntitlement(t *testing.T) {
	f := setupSignin(t)
	f.seedUser(t, 1, "active")
	f.seedSigninCatalog(t)
	expire := time.Now().UTC().Add(48 * time.Hour)
	entID := f.seedActiveEntitlement(t, 1, expire)
	uc := f.useCase(500)

	result, err := uc.Execute(context.Background(), DailySigninCommand{UserID: 1})
	require.NoError(t, err)
	assert.False(t, result.AlreadySigned)

	// time-only extension: the bonus goes to the compat counter, the
	// entitlement allowance stays put
	var row models.EntitlementModel
	require.NoError(t, f.gdb.First(&row, entID).Error)
	extended := row.ServiceExpireAt.Sub(expire)
	assert.InDelta(t, (10 * time.Minute).Seconds(), extended.Seconds(), 1)
	assert.Equal(t, int64(1000), row.TrafficTotalBytes)

	var u models.UserModel
	require.NoError(t, f.gdb.First(&u, 1).Error)
	assert.Equal(t, result.BonusBytes, u.TrafficTotal)
}

func TestDailySignin_CreatesFreshGrantWhenNoneActive(t *testing.T) {
	f := setupSignin(t)
	f.seedUser(t, 1, "active")
	f.seedSigninCatalog(t)
	uc := f.useCase(0)

	before := time.Now().UTC()
	_, err := uc.Execute(context.Background(), DailySigninCommand{UserID: 1})
	require.NoError(t, err)

	var row models.EntitlementModel
	require.NoError(t, f.gdb.Where("user_id = ?", 1).First(&row).Error)
	assert.Equal(t, "active", row.Status)
	assert.Equal(t, uint(50), row.GroupID)
	assert.Equal(t, uint(51), row.PlanID)
	assert.Equal(t, int64(0), row.TrafficTotalBytes)
	minutes := row.ServiceExpireAt.Sub(before).Minutes()
	assert.InDelta(t, 10, minutes, 1)
}

func TestDailySignin_WorksWithoutSigninCatalog(t *testing.T) {
	f := setupSignin(t)
	f.seedUser(t, 1, "active")
	uc := f.useCase(0)

	result, err := uc.Execute(context.Background(), DailySigninCommand{UserID: 1})
	require.NoError(t, err)
	assert.False(t, result.AlreadySigned)

	var orders int64
	require.NoError(t, f.gdb.Model(&models.OrderModel{}).Count(&orders).Error)
	assert.Equal(t, int64(0), orders)
}

func TestDailySignin_BannedUserRejected(t *testing.T) {
	f := setupSignin(t)
	f.seedUser(t, 1, "banned")
	uc := f.useCase(0)

	_, err := uc.Execute(context.Background(), DailySigninCommand{UserID: 1})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)
}
