package rbac

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Principal is the resolved identity behind a request.
type Principal struct {
	UserID      uuid.UUID     `json:"userId"`
	Email       string        `json:"email,omitempty"`
	Role        Role          `json:"role"`
	ServiceID   *uuid.UUID    `json:"serviceId,omitempty"`
	Permissions PermissionSet `json:"permissions"`

	// System marks background actors such as the expiry job.
	System bool `json:"-"`
}

// SystemPrincipal is the actor used by scheduled jobs.
func SystemPrincipal() Principal {
	return Principal{System: true, Permissions: PermissionSet{}}
}

// Can reports whether the principal holds key.
func (p Principal) Can(key PermissionKey) bool {
	return p.Permissions.Has(key)
}

// SeesAllServices reports whether the principal's role bypasses service scoping.
func (p Principal) SeesAllServices() bool {
	return p.Role == RoleAdmin || p.Role == RoleGeneralDirector
}

// Decision is the result of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a negative decision with the reason shown to the caller.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Requirement is one condition a principal must satisfy.
type Requirement interface {
	evaluate(p Principal, scope *uuid.UUID) Decision
}

type permissionRequirement struct{ key PermissionKey }

func (r permissionRequirement) evaluate(p Principal, _ *uuid.UUID) Decision {
	if p.Can(r.key) {
		return Allow()
	}
	return Deny(fmt.Sprintf("missing permission %s", r.key))
}

type roleRequirement struct{ roles []Role }

func (r roleRequirement) evaluate(p Principal, _ *uuid.UUID) Decision {
	for _, role := range r.roles {
		if p.Role == role {
			return Allow()
		}
	}
	names := make([]string, len(r.roles))
	for i, role := range r.roles {
		names[i] = string(role)
	}
	return Deny(fmt.Sprintf("role %s is not allowed, requires one of: %s", p.Role, strings.Join(names, ", ")))
}

type serviceScopeRequirement struct{}

func (serviceScopeRequirement) evaluate(p Principal, scope *uuid.UUID) Decision {
	if p.SeesAllServices() || scope == nil {
		return Allow()
	}
	if p.ServiceID != nil && *p.ServiceID == *scope {
		return Allow()
	}
	return Deny("resource belongs to another service")
}

// RequirePermission allows principals holding key.
func RequirePermission(key PermissionKey) Requirement {
	return permissionRequirement{key: key}
}

// RequireRole allows principals whose role is one of roles.
func RequireRole(roles ...Role) Requirement {
	return roleRequirement{roles: roles}
}

// RequireServiceScope allows ADMIN and GENERAL_DIRECTOR unconditionally and
// everyone else only when scope matches their service. A nil scope allows.
func RequireServiceScope() Requirement {
	return serviceScopeRequirement{}
}

// Authorize evaluates a single requirement. It performs no I/O.
func Authorize(p Principal, req Requirement, scope *uuid.UUID) Decision {
	if req == nil {
		return Allow()
	}
	return req.evaluate(p, scope)
}

// AuthorizeAll evaluates requirements in order and returns the first denial.
func AuthorizeAll(p Principal, scope *uuid.UUID, reqs ...Requirement) Decision {
	for _, req := range reqs {
		if d := Authorize(p, req, scope); !d.Allowed {
			return d
		}
	}
	return Allow()
}
