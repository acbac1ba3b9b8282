package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleStudent    Role = "student"
	RoleSupport    Role = "support"
	RoleDepartment Role = "department"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether r is a known role value.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleSupport, RoleDepartment, RoleAdmin:
		return true
	}
	return false
}

// RequiresDepartment reports whether accounts with this role must belong to
// a department.
func (r Role) RequiresDepartment() bool {
	return r == RoleSupport || r == RoleDepartment
}

// BotEmail is the fixed identity of the system account used to author
// automated agent comments. Provisioned once at startup.
const BotEmail = "agent@system.local"

// User is a student, support agent, department manager or admin.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	DepartmentID *int64
	IsActive     bool
	CreatedAt    time.Time
}

// InDepartment reports whether the user belongs to the given department.
func (u *User) InDepartment(departmentID int64) bool {
	return u.DepartmentID != nil && *u.DepartmentID == departmentID
}
