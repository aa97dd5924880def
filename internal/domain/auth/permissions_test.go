package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	user := NewIdentity("u@example.com", []string{"users.list", "metrics.view"}, []string{RoleEditor})

	tests := []struct {
		name   string
		holder ClaimsHolder
		req    Requirement
		want   bool
	}{
		{
			name:   "empty requirement",
			holder: user,
			req:    Requirement{},
			want:   true,
		},
		{
			name:   "empty requirement with nil holder",
			holder: nil,
			req:    Requirement{},
			want:   true,
		},
		{
			name:   "all permissions held",
			holder: user,
			req:    Requirement{Permissions: []string{"users.list", "metrics.view"}},
			want:   true,
		},
		{
			name:   "permissions are AND-ed",
			holder: NewIdentity("u@example.com", []string{"users.list"}, nil),
			req:    Requirement{Permissions: []string{"users.list", "metrics.view"}},
			want:   false,
		},
		{
			name:   "roles are OR-ed",
			holder: user,
			req:    Requirement{Roles: []string{RoleAdministrator, RoleEditor}},
			want:   true,
		},
		{
			name:   "no matching role",
			holder: user,
			req:    Requirement{Roles: []string{RoleAdministrator}},
			want:   false,
		},
		{
			name:   "missing permission short-circuits despite role match",
			holder: NewIdentity("u@example.com", nil, []string{RoleAdministrator}),
			req:    Requirement{Permissions: []string{"metrics.view"}, Roles: []string{RoleAdministrator}},
			want:   false,
		},
		{
			name:   "both checks pass",
			holder: user,
			req:    Requirement{Permissions: []string{"metrics.view"}, Roles: []string{RoleEditor}},
			want:   true,
		},
		{
			name:   "decoded claims behave like identity",
			holder: Claims{Permissions: []string{"metrics.view"}, Roles: []string{RoleEditor}},
			req:    Requirement{Permissions: []string{"metrics.view"}, Roles: []string{"viewer", RoleEditor}},
			want:   true,
		},
		{
			name:   "nil holder with requirement",
			holder: nil,
			req:    Requirement{Roles: []string{RoleEditor}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.holder, tt.req))
		})
	}
}

func TestRequirement_IsEmpty(t *testing.T) {
	assert.True(t, Requirement{}.IsEmpty())
	assert.False(t, RequirePermissions(PermissionMetricsView).IsEmpty())
	assert.False(t, RequireRoles(RoleEditor).IsEmpty())
}
