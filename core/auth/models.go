package auth

import "strings"

// Roles
const (
	RoleStudent = "student"
	RoleExco    = "exco"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleExco, RoleAdmin}

// Identity is the authenticated user as reported by the identity provider.
// It is read-only here; the portal never persists it.
type Identity struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        string        `json:"role"`
	Permissions PermissionSet `json:"permissions"`
}

func (usr *Identity) IsAdmin() bool {
	return usr != nil && usr.Role == RoleAdmin
}

func (usr *Identity) IsExco() bool {
	return usr != nil && usr.Role == RoleExco
}

func (usr *Identity) IsStudent() bool {
	return usr != nil && usr.Role == RoleStudent
}

func (usr *Identity) HasRole(roles ...string) bool {
	if usr == nil {
		return false
	}
	for _, role := range roles {
		if strings.EqualFold(usr.Role, role) {
			return true
		}
	}
	return false
}
