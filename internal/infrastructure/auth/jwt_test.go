package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 7)

	pair, err := svc.Generate(42, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)

	claims, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refresh, err := svc.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	pair, err := NewJWTService("secret-a", 15, 7).Generate(1, "user")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 15, 7).Verify(pair.AccessToken)
	assert.Error(t, err)

	_, err = NewJWTService("secret-a", 15, 7).Verify("not-a-token")
	assert.Error(t, err)
}

func TestInternalKeyHolder(t *testing.T) {
	holder := NewInternalKeyHolder("initial")
	assert.True(t, holder.Matches("initial"))
	assert.False(t, holder.Matches("wrong"))
	assert.False(t, holder.Matches(""))

	holder.Set("rotated")
	assert.False(t, holder.Matches("initial"))
	assert.True(t, holder.Matches("rotated"))

	empty := NewInternalKeyHolder("")
	assert.False(t, empty.Matches(""))
	assert.False(t, empty.Matches("anything"))
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(4)

	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, hasher.Verify(hash, "hunter2"))
	assert.False(t, hasher.Verify(hash, "hunter3"))
}
