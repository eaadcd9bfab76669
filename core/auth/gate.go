package auth

import (
	"fmt"

	"github.com/pkg/errors"
)

// Landing paths
const (
	SignInPath         = "/auth/login"
	StudentLandingPath = "/dashboard"
	AdminLandingPath   = "/admin"
)

// Decision is the outcome of evaluating a Gate against an identity.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionDenyUnauthenticated
	DecisionDenyRole
	DecisionDenyPermission
	DecisionDenyAnyPermission
	DecisionDenyAllPermissions
)

func (d Decision) Allowed() bool {
	return d == DecisionAllow
}

// Gate declares the access requirements of a protected route.
// All configured checks must independently pass; they are evaluated in a fixed
// order (roles, single permission, any-of, all-of) so the first failure - and
// therefore the redirect behavior - is deterministic.
type Gate struct {
	Roles          []string // legacy role allow-list
	Permission     string   // single required permission
	AnyPermission  []string // at least one required
	AllPermissions []string // every one required
}

// Validate rejects unknown roles and permission strings.
// The registry is closed; a typo'd permission would otherwise silently lock out everyone.
func (g Gate) Validate() error {
	for _, role := range g.Roles {
		var ok bool
		for _, known := range AllRoles {
			if role == known {
				ok = true
				break
			}
		}
		if !ok {
			return errors.New(fmt.Sprintf("unknown role %q", role))
		}
	}
	check := make([]string, 0, 1+len(g.AnyPermission)+len(g.AllPermissions))
	if g.Permission != "" {
		check = append(check, g.Permission)
	}
	check = append(check, g.AnyPermission...)
	check = append(check, g.AllPermissions...)
	for _, perm := range check {
		if !IsKnownPermission(perm) {
			return errors.New(fmt.Sprintf("unknown permission %q", perm))
		}
	}
	return nil
}

// Check evaluates the gate against usr. It never triggers navigation itself;
// callers map the decision to a redirect or an error response.
func (g Gate) Check(usr *Identity) Decision {
	if usr == nil {
		return DecisionDenyUnauthenticated
	}
	if len(g.Roles) > 0 && !usr.HasRole(g.Roles...) {
		return DecisionDenyRole
	}
	if g.Permission != "" && !usr.Permissions.Has(g.Permission) {
		return DecisionDenyPermission
	}
	if len(g.AnyPermission) > 0 && !usr.Permissions.HasAny(g.AnyPermission...) {
		return DecisionDenyAnyPermission
	}
	if len(g.AllPermissions) > 0 && !usr.Permissions.HasAll(g.AllPermissions...) {
		return DecisionDenyAllPermissions
	}
	return DecisionAllow
}

// LandingPath is where an authenticated but under-permissioned user is sent.
func LandingPath(usr *Identity) string {
	if usr == nil {
		return SignInPath
	}
	if usr.IsAdmin() {
		return AdminLandingPath
	}
	return StudentLandingPath
}
