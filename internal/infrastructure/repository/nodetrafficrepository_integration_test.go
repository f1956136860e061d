package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/shared/logger"
)

func TestNodeTrafficRepository_AddDailyAccumulates(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewNodeTrafficRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	require.NoError(t, repo.AddDaily(ctx, 3, "2026-09-01", 100, 200))
	require.NoError(t, repo.AddDaily(ctx, 3, "2026-09-01", 50, 25))
	require.NoError(t, repo.AddDaily(ctx, 3, "2026-09-02", 7, 8))
	require.NoError(t, repo.AddDaily(ctx, 4, "2026-09-01", 1, 1))

	daily, err := repo.GetDaily(ctx, 3, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, int64(150), daily.UploadBytes)
	assert.Equal(t, int64(225), daily.DownloadBytes)
	assert.Equal(t, int64(375), daily.TotalBytes())

	next, err := repo.GetDaily(ctx, 3, "2026-09-02")
	require.NoError(t, err)
	assert.Equal(t, int64(15), next.TotalBytes())

	// unknown day reads as zero
	empty, err := repo.GetDaily(ctx, 3, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalBytes())
}

func TestSettingRepository_Upsert(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewSettingRepository(gdb, logger.NewLogger())
	ctx := context.Background()

	value, err := repo.Get(ctx, "internal_api_key")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, repo.Set(ctx, "internal_api_key", "first"))
	require.NoError(t, repo.Set(ctx, "internal_api_key", "second"))

	value, err = repo.Get(ctx, "internal_api_key")
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"internal_api_key": "second"}, all)
}
