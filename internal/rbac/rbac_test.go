package rbac

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminHoldsEntireCatalog(t *testing.T) {
	admin := DefaultPermissions(RoleAdmin)
	assert.Len(t, admin, len(Catalog))
	for key := range Catalog {
		assert.True(t, admin.Has(key), "ADMIN is missing %s", key)
	}
}

func TestRolePermissionsAreInCatalog(t *testing.T) {
	for _, role := range AllRoles {
		perms, ok := RolePermissions[role]
		require.True(t, ok, "role %s has no default permissions", role)
		for _, key := range perms {
			assert.True(t, IsKnown(key), "role %s grants unknown key %s", role, key)
		}
	}
}

func TestCatalogKeysAreResourceDotAction(t *testing.T) {
	for key, label := range Catalog {
		parts := strings.Split(string(key), ".")
		assert.Len(t, parts, 2, "malformed key %s", key)
		assert.NotEmpty(t, label)
	}
}

func TestEmployeeCannotApproveAtAnyLevel(t *testing.T) {
	perms := DefaultPermissions(RoleEmployee)
	assert.False(t, perms.Has(PermQuotesApproveDG))
	assert.False(t, perms.Has(PermQuotesApproveService))
	assert.False(t, perms.Has(PermQuotesReject))
}

func TestRejectHeldOnlyByApprovers(t *testing.T) {
	holders := []Role{}
	for _, role := range AllRoles {
		if DefaultPermissions(role).Has(PermQuotesReject) {
			holders = append(holders, role)
		}
	}
	assert.ElementsMatch(t, []Role{RoleAdmin, RoleGeneralDirector, RoleServiceManager}, holders)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("ACCOUNTANT")
	require.NoError(t, err)
	assert.Equal(t, RoleAccountant, r)

	_, err = ParseRole("accountant")
	assert.Error(t, err)
}

func TestEffectivePermissions(t *testing.T) {
	t.Run("nil override uses role default", func(t *testing.T) {
		perms := EffectivePermissions(RoleAccountant, nil)
		assert.Equal(t, DefaultPermissions(RoleAccountant), perms)
	})

	t.Run("override replaces role default", func(t *testing.T) {
		perms := EffectivePermissions(RoleEmployee, []string{"quotes.read", "reports.export"})
		assert.Len(t, perms, 2)
		assert.True(t, perms.Has(PermReportsExport))
		assert.False(t, perms.Has(PermQuotesCreate))
	})

	t.Run("empty override grants nothing", func(t *testing.T) {
		perms := EffectivePermissions(RoleAdmin, []string{})
		assert.Empty(t, perms)
	})
}

func TestValidateOverride(t *testing.T) {
	t.Run("all known keys", func(t *testing.T) {
		set, err := ValidateOverride([]string{"quotes.read", "quotes.create", "quotes.read"})
		require.NoError(t, err)
		assert.Equal(t, []string{"quotes.create", "quotes.read"}, set.Strings())
	})

	t.Run("unknown keys reject the whole list", func(t *testing.T) {
		set, err := ValidateOverride([]string{"quotes.read", "quotes.delete", "payroll.run"})
		require.Error(t, err)
		assert.Nil(t, set)

		var unknown *UnknownPermissionsError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, []string{"payroll.run", "quotes.delete"}, unknown.Keys)
	})

	t.Run("wildcards are not keys", func(t *testing.T) {
		_, err := ValidateOverride([]string{"quotes.*"})
		assert.Error(t, err)
	})
}

func TestPermissionSetJSON(t *testing.T) {
	set := NewPermissionSet(PermQuotesRead, PermAuditRead)
	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `["audit.read","quotes.read"]`, string(data))

	var decoded PermissionSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}

func TestAuthorize(t *testing.T) {
	serviceA := uuid.New()
	serviceB := uuid.New()

	employee := Principal{UserID: uuid.New(), Role: RoleEmployee, ServiceID: &serviceA, Permissions: DefaultPermissions(RoleEmployee)}
	manager := Principal{UserID: uuid.New(), Role: RoleServiceManager, ServiceID: &serviceA, Permissions: DefaultPermissions(RoleServiceManager)}
	director := Principal{UserID: uuid.New(), Role: RoleGeneralDirector, Permissions: DefaultPermissions(RoleGeneralDirector)}
	admin := Principal{UserID: uuid.New(), Role: RoleAdmin, Permissions: DefaultPermissions(RoleAdmin)}
	noService := Principal{UserID: uuid.New(), Role: RoleAccountant, Permissions: DefaultPermissions(RoleAccountant)}

	tests := []struct {
		name      string
		principal Principal
		req       Requirement
		scope     *uuid.UUID
		allowed   bool
	}{
		{"permission held", employee, RequirePermission(PermQuotesCreate), nil, true},
		{"permission missing", employee, RequirePermission(PermQuotesApproveDG), nil, false},
		{"role matches", director, RequireRole(RoleGeneralDirector), nil, true},
		{"role in set", manager, RequireRole(RoleAdmin, RoleServiceManager), nil, true},
		{"role not in set", employee, RequireRole(RoleAdmin, RoleServiceManager), nil, false},
		{"scope same service", manager, RequireServiceScope(), &serviceA, true},
		{"scope other service", manager, RequireServiceScope(), &serviceB, false},
		{"scope absent allows", manager, RequireServiceScope(), nil, true},
		{"scope admin bypass", admin, RequireServiceScope(), &serviceB, true},
		{"scope director bypass", director, RequireServiceScope(), &serviceB, true},
		{"scope principal without service", noService, RequireServiceScope(), &serviceA, false},
		{"nil requirement", employee, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.principal, tt.req, tt.scope)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestAuthorizeAllReturnsFirstDenial(t *testing.T) {
	serviceA := uuid.New()
	serviceB := uuid.New()
	manager := Principal{Role: RoleServiceManager, ServiceID: &serviceA, Permissions: DefaultPermissions(RoleServiceManager)}

	d := AuthorizeAll(manager, &serviceB,
		RequirePermission(PermQuotesApproveService),
		RequireServiceScope(),
	)
	assert.False(t, d.Allowed)
	assert.Equal(t, "resource belongs to another service", d.Reason)

	d = AuthorizeAll(manager, &serviceA,
		RequirePermission(PermQuotesApproveService),
		RequireServiceScope(),
	)
	assert.True(t, d.Allowed)
}
