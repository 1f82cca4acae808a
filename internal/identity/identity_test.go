package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrimsAndDropsBlankRoles(t *testing.T) {
	id := New(" t1 ", " alice ", "", RoleCreator, " ", Role(" TRANSACTION_VIEWER "))

	assert.Equal(t, "t1", id.TenantID)
	assert.Equal(t, "alice", id.UserID)
	assert.True(t, id.HasRole(RoleCreator))
	assert.True(t, id.HasRole(RoleViewer))
	assert.False(t, id.HasRole(RoleApprover))
	assert.Equal(t, []Role{RoleCreator, RoleViewer}, id.Roles())
}

func TestRolesAreNotShared(t *testing.T) {
	roles := []Role{RoleApprover}
	id := New("t1", "bob", "", roles...)
	roles[0] = RoleAdmin

	assert.True(t, id.HasRole(RoleApprover))
	assert.False(t, id.HasRole(RoleAdmin))

	got := id.Roles()
	got[0] = RoleAdmin
	assert.False(t, id.HasRole(RoleAdmin))
}

func TestParseRoles(t *testing.T) {
	tests := []struct {
		in   string
		want []Role
	}{
		{"", nil},
		{"ADMIN", []Role{RoleAdmin}},
		{"TRANSACTION_CREATOR, TRANSACTION_APPROVER", []Role{RoleCreator, RoleApprover}},
		{" , ADMIN ,", []Role{RoleAdmin}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRoles(tt.in), "input: %q", tt.in)
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, New("", "u", "").Validate(), ErrMissingTenant)
	assert.ErrorIs(t, New("t", "", "").Validate(), ErrMissingUser)
	assert.NoError(t, New("t", "u", "").Validate())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithContext(context.Background(), New("t1", "alice", "a@x.io", RoleViewer))
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", got.UserID)
	assert.True(t, got.HasRole(RoleViewer))
}
