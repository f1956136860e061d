package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser("", "a@b.com", "hash")
	assert.Error(t, err)
	_, err = NewUser("alice", "", "hash")
	assert.Error(t, err)
	_, err = NewUser("alice", "a@b.com", "")
	assert.Error(t, err)

	u, err := NewUser("alice", "a@b.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role())
	assert.Equal(t, StatusActive, u.Status())
}

func TestUser_CompatTrafficCounters(t *testing.T) {
	u, err := NewUser("alice", "a@b.com", "hash")
	require.NoError(t, err)

	u.AddCompatTraffic(1000)
	assert.Equal(t, int64(1000), u.TrafficTotal())

	u.ConsumeCompatTraffic(600)
	assert.Equal(t, int64(600), u.TrafficUsed())

	// negative delta floors at the used counter
	u.AddCompatTraffic(-900)
	assert.Equal(t, int64(600), u.TrafficTotal())

	u.ConsumeCompatTraffic(-5)
	assert.Equal(t, int64(600), u.TrafficUsed())
}

func TestUser_ExtendCompatExpiry(t *testing.T) {
	u, err := NewUser("alice", "a@b.com", "hash")
	require.NoError(t, err)

	first := time.Now().UTC().Add(24 * time.Hour)
	u.ExtendCompatExpiry(first)
	require.NotNil(t, u.ExpiredAt())
	assert.Equal(t, first, *u.ExpiredAt())

	// never moves backwards
	u.ExtendCompatExpiry(first.Add(-time.Hour))
	assert.Equal(t, first, *u.ExpiredAt())

	later := first.Add(48 * time.Hour)
	u.ExtendCompatExpiry(later)
	assert.Equal(t, later, *u.ExpiredAt())
}

func TestUser_RecordSignin_Streak(t *testing.T) {
	now := time.Now().UTC()

	u, err := NewUser("alice", "a@b.com", "hash")
	require.NoError(t, err)

	u.RecordSignin(now, "2026-08-31", "")
	assert.Equal(t, 1, u.SigninStreak())

	u.RecordSignin(now, "2026-08-31", "2026-08-31")
	assert.Equal(t, 2, u.SigninStreak())

	// a gap resets the streak
	u.RecordSignin(now, "2026-09-03", "2026-08-31")
	assert.Equal(t, 1, u.SigninStreak())
	require.NotNil(t, u.LastSigninAt())
}

func TestUser_BanUnban(t *testing.T) {
	u, err := NewUser("alice", "a@b.com", "hash")
	require.NoError(t, err)

	u.Ban()
	assert.True(t, u.IsBanned())
	u.Unban()
	assert.False(t, u.IsBanned())
}
