package domain

import "fmt"

// Role enumerates the kinds of people using the platform.
type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleParent     Role = "parent"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// AllRoles lists every known role.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether a user may pick this role at sign-up.
func (r Role) SelfAssignable() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleParent
}

// IsStaff reports whether the role may author content.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole converts stored text into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
