package rbac

import (
	"encoding/json"
	"sort"
	"strings"
)

// PermissionKey identifies one grantable action, formatted "<resource>.<action>".
type PermissionKey string

// Permission keys. Every key must also appear in Catalog.
const (
	PermUsersRead              PermissionKey = "users.read"
	PermUsersCreate            PermissionKey = "users.create"
	PermUsersUpdate            PermissionKey = "users.update"
	PermUsersManagePermissions PermissionKey = "users.manage_permissions"

	PermServicesRead   PermissionKey = "services.read"
	PermServicesManage PermissionKey = "services.manage"

	PermCustomersRead   PermissionKey = "customers.read"
	PermCustomersCreate PermissionKey = "customers.create"
	PermCustomersUpdate PermissionKey = "customers.update"

	PermQuotesRead              PermissionKey = "quotes.read"
	PermQuotesCreate            PermissionKey = "quotes.create"
	PermQuotesUpdate            PermissionKey = "quotes.update"
	PermQuotesSubmitForApproval PermissionKey = "quotes.submit_for_approval"
	PermQuotesApproveService    PermissionKey = "quotes.approve_service"
	PermQuotesApproveDG         PermissionKey = "quotes.approve_dg"
	PermQuotesReject            PermissionKey = "quotes.reject"

	PermInvoicesRead   PermissionKey = "invoices.read"
	PermInvoicesCreate PermissionKey = "invoices.create"
	PermInvoicesUpdate PermissionKey = "invoices.update"

	PermPaymentsRead   PermissionKey = "payments.read"
	PermPaymentsCreate PermissionKey = "payments.create"

	PermNotificationsRead PermissionKey = "notifications.read"
	PermAuditRead         PermissionKey = "audit.read"
	PermReportsExport     PermissionKey = "reports.export"
)

// Catalog is the closed set of grantable permissions with their display labels.
var Catalog = map[PermissionKey]string{
	PermUsersRead:              "View users",
	PermUsersCreate:            "Create users",
	PermUsersUpdate:            "Edit users",
	PermUsersManagePermissions: "Manage user permissions",

	PermServicesRead:   "View services",
	PermServicesManage: "Manage services",

	PermCustomersRead:   "View customers",
	PermCustomersCreate: "Create customers",
	PermCustomersUpdate: "Edit customers",

	PermQuotesRead:              "View quotes",
	PermQuotesCreate:            "Create quotes",
	PermQuotesUpdate:            "Edit quotes",
	PermQuotesSubmitForApproval: "Submit quotes for approval",
	PermQuotesApproveService:    "Approve quotes (service manager)",
	PermQuotesApproveDG:         "Approve quotes (general director)",
	PermQuotesReject:            "Reject quotes",

	PermInvoicesRead:   "View invoices",
	PermInvoicesCreate: "Create invoices",
	PermInvoicesUpdate: "Edit invoices",

	PermPaymentsRead:   "View payments",
	PermPaymentsCreate: "Record payments",

	PermNotificationsRead: "View notifications",
	PermAuditRead:         "View audit trail",
	PermReportsExport:     "Export reports",
}

// IsKnown reports whether key belongs to the catalog.
func IsKnown(key PermissionKey) bool {
	_, ok := Catalog[key]
	return ok
}

// AllPermissions returns every catalog key in sorted order.
func AllPermissions() []PermissionKey {
	keys := make([]PermissionKey, 0, len(Catalog))
	for k := range Catalog {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// PermissionSet is an unordered set of permission keys.
type PermissionSet map[PermissionKey]struct{}

// NewPermissionSet builds a set from keys, dropping duplicates.
func NewPermissionSet(keys ...PermissionKey) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether key is in the set.
func (s PermissionSet) Has(key PermissionKey) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the set members sorted.
func (s PermissionSet) Keys() []PermissionKey {
	keys := make([]PermissionKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Strings returns the sorted members as plain strings, the storage form.
func (s PermissionSet) Strings() []string {
	keys := s.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := make(PermissionSet, len(raw))
	for _, k := range raw {
		set[PermissionKey(k)] = struct{}{}
	}
	*s = set
	return nil
}

// UnknownPermissionsError lists override keys that are not in the catalog.
type UnknownPermissionsError struct {
	Keys []string
}

func (e *UnknownPermissionsError) Error() string {
	return "unknown permissions: " + strings.Join(e.Keys, ", ")
}

// ValidateOverride checks a custom permission list against the catalog.
// Either every key is known and the full set is returned, or nothing is
// returned along with an error naming all unknown keys.
func ValidateOverride(keys []string) (PermissionSet, error) {
	set := make(PermissionSet, len(keys))
	var unknown []string
	for _, raw := range keys {
		key := PermissionKey(strings.TrimSpace(raw))
		if !IsKnown(key) {
			unknown = append(unknown, raw)
			continue
		}
		set[key] = struct{}{}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownPermissionsError{Keys: unknown}
	}
	return set, nil
}
