package auth

import "context"

const (
	RoleAdmin  = "admin"
	RoleWarden = "warden"
	RoleStaff  = "staff"
)

const (
	PermMembersRead  = "members.read"
	PermMembersWrite = "members.write"
	PermLeaveRead    = "leave.read"
	PermLeaveWrite   = "leave.write"
	PermLeaveAdjust  = "leave.adjust"
	PermReportsRead  = "reports.read"
	PermAuditRead    = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleStaff: {
		PermMembersRead,
		PermLeaveRead,
		PermLeaveWrite,
	},
	RoleWarden: {
		PermMembersRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermReportsRead,
	},
	RoleAdmin: {
		PermMembersRead,
		PermMembersWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveAdjust,
		PermReportsRead,
		PermAuditRead,
	},
}

// Permissions is the static role→permission table consulted by the RBAC
// middleware.
type Permissions struct{}

func (Permissions) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	for _, granted := range RolePermissions[role] {
		if granted == permission {
			return true, nil
		}
	}
	return false, nil
}
