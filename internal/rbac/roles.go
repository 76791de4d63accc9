package rbac

import "fmt"

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleGeneralDirector Role = "GENERAL_DIRECTOR"
	RoleServiceManager  Role = "SERVICE_MANAGER"
	RoleEmployee        Role = "EMPLOYEE"
	RoleAccountant      Role = "ACCOUNTANT"
)

// AllRoles lists every role.
var AllRoles = []Role{RoleAdmin, RoleGeneralDirector, RoleServiceManager, RoleEmployee, RoleAccountant}

// IsValid reports whether r is one of the declared roles.
func (r Role) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RolePermissions is the default permission set held by each role.
// ADMIN always holds the whole catalog.
var RolePermissions = map[Role][]PermissionKey{
	RoleAdmin: AllPermissions(),
	RoleGeneralDirector: {
		PermUsersRead,
		PermServicesRead,
		PermCustomersRead, PermCustomersCreate, PermCustomersUpdate,
		PermQuotesRead, PermQuotesCreate, PermQuotesUpdate, PermQuotesSubmitForApproval,
		PermQuotesApproveDG, PermQuotesReject,
		PermInvoicesRead, PermInvoicesCreate, PermInvoicesUpdate,
		PermPaymentsRead,
		PermNotificationsRead,
		PermAuditRead,
		PermReportsExport,
	},
	RoleServiceManager: {
		PermUsersRead,
		PermServicesRead,
		PermCustomersRead, PermCustomersCreate, PermCustomersUpdate,
		PermQuotesRead, PermQuotesCreate, PermQuotesUpdate, PermQuotesSubmitForApproval,
		PermQuotesApproveService, PermQuotesReject,
		PermInvoicesRead,
		PermNotificationsRead,
		PermReportsExport,
	},
	RoleEmployee: {
		PermServicesRead,
		PermCustomersRead, PermCustomersCreate,
		PermQuotesRead, PermQuotesCreate, PermQuotesUpdate, PermQuotesSubmitForApproval,
		PermNotificationsRead,
	},
	RoleAccountant: {
		PermServicesRead,
		PermCustomersRead,
		PermQuotesRead,
		PermInvoicesRead, PermInvoicesCreate, PermInvoicesUpdate,
		PermPaymentsRead, PermPaymentsCreate,
		PermNotificationsRead,
		PermReportsExport,
	},
}

// DefaultPermissions returns the role's default set.
func DefaultPermissions(role Role) PermissionSet {
	return NewPermissionSet(RolePermissions[role]...)
}

// EffectivePermissions returns the custom override when one is stored and
// the role default otherwise. A nil override means "no override"; an empty
// non-nil override grants nothing.
func EffectivePermissions(role Role, override []string) PermissionSet {
	if override == nil {
		return DefaultPermissions(role)
	}
	set := make(PermissionSet, len(override))
	for _, k := range override {
		set[PermissionKey(k)] = struct{}{}
	}
	return set
}
