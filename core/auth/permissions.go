package auth

import (
	"encoding/json"
	"sort"
)

// Permissions are opaque "<resource>:<verb>" capability strings granted per role
// assignment in the scope session. They gate presentation only; the backend
// re-validates every mutating request.
const (
	// Announcements
	PermAnnouncementCreate = "announcement:create"
	PermAnnouncementEdit   = "announcement:edit"
	PermAnnouncementDelete = "announcement:delete"
	PermAnnouncementView   = "announcement:view"

	// Events
	PermEventCreate = "event:create"
	PermEventEdit   = "event:edit"
	PermEventDelete = "event:delete"
	PermEventManage = "event:manage"

	// Payments
	PermPaymentCreate  = "payment:create"
	PermPaymentEdit    = "payment:edit"
	PermPaymentDelete  = "payment:delete"
	PermPaymentApprove = "payment:approve"
	PermPaymentViewAll = "payment:view_all"

	// Press
	PermPressReview = "press:review"
	PermPressEdit   = "press:edit"

	// Users
	PermUserViewAll = "user:view_all"
	PermUserEdit    = "user:edit"
	PermUserDelete  = "user:delete"

	// Roles
	PermRoleAssign = "role:assign"
	PermRoleRevoke = "role:revoke"
	PermRoleView   = "role:view"

	// Sessions
	PermSessionCreate   = "session:create"
	PermSessionEdit     = "session:edit"
	PermSessionActivate = "session:activate"
	PermSessionDelete   = "session:delete"

	// Enrollments
	PermEnrollmentViewAll = "enrollment:view_all"
	PermEnrollmentManage  = "enrollment:manage"
)

// registry is the closed set of known permissions.
var registry = map[string]string{
	PermAnnouncementCreate: "Create announcements",
	PermAnnouncementEdit:   "Edit announcements",
	PermAnnouncementDelete: "Delete announcements",
	PermAnnouncementView:   "View announcements",
	PermEventCreate:        "Create events",
	PermEventEdit:          "Edit events",
	PermEventDelete:        "Delete events",
	PermEventManage:        "Manage event registrations",
	PermPaymentCreate:      "Create payment requests",
	PermPaymentEdit:        "Edit payment requests",
	PermPaymentDelete:      "Delete payment requests",
	PermPaymentApprove:     "Approve/verify payments",
	PermPaymentViewAll:     "View all students' payments",
	PermPressReview:        "Review press submissions",
	PermPressEdit:          "Edit press articles",
	PermUserViewAll:        "View all users",
	PermUserEdit:           "Edit user profiles",
	PermUserDelete:         "Delete users",
	PermRoleAssign:         "Assign roles to users",
	PermRoleRevoke:         "Revoke roles from users",
	PermRoleView:           "View role assignments",
	PermSessionCreate:      "Create new sessions",
	PermSessionEdit:        "Edit sessions",
	PermSessionActivate:    "Activate/deactivate sessions",
	PermSessionDelete:      "Delete sessions",
	PermEnrollmentViewAll:  "View all enrollments",
	PermEnrollmentManage:   "Manage enrollments",
}

func IsKnownPermission(perm string) bool {
	_, ok := registry[perm]
	return ok
}

// AllPermissions returns the full registry, sorted. Admins hold all of these.
func AllPermissions() []string {
	perms := make([]string, 0, len(registry))
	for perm := range registry {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms
}

// PermissionSet is the set of permissions held by a user in the scope session.
type PermissionSet map[string]struct{}

func NewPermissionSet(perms ...string) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, perm := range perms {
		set[perm] = struct{}{}
	}
	return set
}

func (set PermissionSet) Has(perm string) bool {
	_, ok := set[perm]
	return ok
}

// HasAny reports whether at least one of perms is held. Empty input passes.
func (set PermissionSet) HasAny(perms ...string) bool {
	if len(perms) == 0 {
		return true
	}
	for _, perm := range perms {
		if set.Has(perm) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of perms is held.
func (set PermissionSet) HasAll(perms ...string) bool {
	for _, perm := range perms {
		if !set.Has(perm) {
			return false
		}
	}
	return true
}

func (set PermissionSet) Slice() []string {
	perms := make([]string, 0, len(set))
	for perm := range set {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms
}

// PermissionSet marshals as a sorted JSON array of permission strings.

func (set PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Slice())
}

func (set *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	*set = NewPermissionSet(perms...)
	return nil
}
