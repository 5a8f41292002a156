package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can view team attendance and leave
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// Principal is the caller identified by an access token.
type Principal struct {
	UserID     string
	EmployeeID string
	Role       Role
}

// IsManager checks if the caller is manager or owner
func (p Principal) IsManager() bool {
	return p.Role == RoleManager || p.Role == RoleOwner
}

// Can reports whether the caller's role grants permission.
func (p Principal) Can(permission Permission) bool {
	return HasPermission(p.Role, permission)
}

// CanView reports whether the caller may read data of employeeID under the
// own/all permission pair.
func (p Principal) CanView(employeeID string, own, all Permission) bool {
	if employeeID != "" && employeeID == p.EmployeeID {
		return HasPermission(p.Role, own)
	}
	return HasPermission(p.Role, all)
}
