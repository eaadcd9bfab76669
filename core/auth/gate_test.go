package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Gate_Check(t *testing.T) {
	student := &Identity{ID: "u1", Role: RoleStudent}
	exco := &Identity{ID: "u2", Role: RoleExco, Permissions: NewPermissionSet(PermEventCreate, PermAnnouncementCreate)}
	admin := &Identity{ID: "u3", Role: RoleAdmin, Permissions: NewPermissionSet(AllPermissions()...)}

	tests := []struct {
		name string
		gate Gate
		usr  *Identity
		want Decision
	}{
		{name: "empty gate requires authentication only", gate: Gate{}, usr: student, want: DecisionAllow},
		{name: "empty gate rejects anonymous", gate: Gate{}, usr: nil, want: DecisionDenyUnauthenticated},

		{name: "role match", gate: Gate{Roles: []string{RoleAdmin}}, usr: admin, want: DecisionAllow},
		{name: "role mismatch", gate: Gate{Roles: []string{RoleAdmin}}, usr: student, want: DecisionDenyRole},
		{name: "any listed role passes", gate: Gate{Roles: []string{RoleAdmin, RoleExco}}, usr: exco, want: DecisionAllow},

		{name: "single permission held", gate: Gate{Permission: PermEventCreate}, usr: exco, want: DecisionAllow},
		{name: "single permission missing", gate: Gate{Permission: PermPressReview}, usr: exco, want: DecisionDenyPermission},
		{name: "permission check ignores role", gate: Gate{Permission: PermPressReview}, usr: student, want: DecisionDenyPermission},

		{name: "any-of with one held", gate: Gate{AnyPermission: []string{PermEventCreate, PermEventEdit}}, usr: exco, want: DecisionAllow},
		{name: "any-of with none held", gate: Gate{AnyPermission: []string{PermPressReview, PermPaymentApprove}}, usr: exco, want: DecisionDenyAnyPermission},

		{name: "all-of with all held", gate: Gate{AllPermissions: []string{PermEventCreate, PermAnnouncementCreate}}, usr: exco, want: DecisionAllow},
		{name: "all-of with one missing", gate: Gate{AllPermissions: []string{PermEventCreate, PermPressReview}}, usr: exco, want: DecisionDenyAllPermissions},

		{name: "admin holds the full registry", gate: Gate{AllPermissions: AllPermissions()}, usr: admin, want: DecisionAllow},

		// checks are cumulative and evaluated in a fixed order
		{
			name: "role failure reported before permission failure",
			gate: Gate{Roles: []string{RoleAdmin}, Permission: PermPressReview},
			usr:  student,
			want: DecisionDenyRole,
		},
		{
			name: "single permission failure reported before any-of",
			gate: Gate{Permission: PermPressReview, AnyPermission: []string{PermPaymentApprove}},
			usr:  exco,
			want: DecisionDenyPermission,
		},
		{
			name: "role passes but permission fails",
			gate: Gate{Roles: []string{RoleExco}, Permission: PermPressReview},
			usr:  exco,
			want: DecisionDenyPermission,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gate.Check(tt.usr))
			assert.Equal(t, tt.want == DecisionAllow, tt.gate.Check(tt.usr).Allowed())
		})
	}
}

func Test_Gate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		gate    Gate
		wantErr string
	}{
		{name: "empty", gate: Gate{}},
		{name: "known role and permissions", gate: Gate{Roles: []string{RoleExco}, Permission: PermEventCreate, AnyPermission: []string{PermEventEdit}}},
		{name: "unknown role", gate: Gate{Roles: []string{"superuser"}}, wantErr: `unknown role "superuser"`},
		{name: "unknown permission", gate: Gate{Permission: "event:explode"}, wantErr: `unknown permission "event:explode"`},
		{name: "unknown permission in any-of", gate: Gate{AnyPermission: []string{PermEventCreate, "lol"}}, wantErr: `unknown permission "lol"`},
		{name: "unknown permission in all-of", gate: Gate{AllPermissions: []string{"lol"}}, wantErr: `unknown permission "lol"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gate.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func Test_LandingPath(t *testing.T) {
	assert.Equal(t, SignInPath, LandingPath(nil))
	assert.Equal(t, AdminLandingPath, LandingPath(&Identity{Role: RoleAdmin}))
	assert.Equal(t, StudentLandingPath, LandingPath(&Identity{Role: RoleExco}))
	assert.Equal(t, StudentLandingPath, LandingPath(&Identity{Role: RoleStudent}))
}
