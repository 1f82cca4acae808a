package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/paystream/internal/identity"
)

func newManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", "paystream", 15*time.Minute, 24*time.Hour)
}

func TestGeneratePairRoundTrip(t *testing.T) {
	tm := newManager()
	who := identity.New("t1", "alice", "alice@example.com", identity.RoleCreator, identity.RoleViewer)

	pair, err := tm.GeneratePair(who)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.AccessExp, 5*time.Second)

	claims, isRefresh, err := tm.ParseAny(pair.Access)
	require.NoError(t, err)
	assert.False(t, isRefresh)
	got := claims.Identity()
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, got.HasRole(identity.RoleCreator))
	assert.True(t, got.HasRole(identity.RoleViewer))
	assert.False(t, got.HasRole(identity.RoleApprover))

	claims, isRefresh, err = tm.ParseAny(pair.Refresh)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	assert.Equal(t, "alice", claims.UserID)
}

func TestGeneratePairNeedsTenantAndUser(t *testing.T) {
	_, err := newManager().GeneratePair(identity.New("", "alice", ""))
	assert.ErrorIs(t, err, identity.ErrMissingTenant)
}

func TestParseAnyRejects(t *testing.T) {
	tm := newManager()
	pair, err := tm.GeneratePair(identity.New("t1", "bob", "", identity.RoleApprover))
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, _, err := tm.ParseAny("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secrets", func(t *testing.T) {
		other := NewTokenManager("x", "y", "paystream", time.Minute, time.Minute)
		_, _, err := other.ParseAny(pair.Access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewTokenManager("access-secret", "refresh-secret", "someone-else", time.Minute, time.Minute)
		_, _, err := other.ParseAny(pair.Access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := newManager()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, isRefresh, err := later.ParseAny(pair.Access)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, isRefresh)

		_, isRefresh, err = later.ParseAny(pair.Refresh)
		require.NoError(t, err)
		assert.True(t, isRefresh)
	})
}
