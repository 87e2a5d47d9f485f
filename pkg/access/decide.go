package access

import (
	"github.com/sitehaven/sitehaven/pkg/auth"
)

// Decider evaluates one operation kind for a caller. The viewingTenant
// argument is the super-admin override extracted from the request; "" means
// no override. Deciders are pure and safe to call any number of times.
type Decider func(caller *auth.User, viewingTenant string) Verdict

// superVerdict applies the override rule for global-privileged callers:
// a set override narrows every operation to that tenant, otherwise access
// is unrestricted. The override is never validated here; scoping to a
// nonexistent tenant matches zero records.
func superVerdict(viewingTenant string) Verdict {
	if viewingTenant != "" {
		return ScopeToTenant(viewingTenant)
	}
	return Allow()
}

// Read scopes reads to the caller's home tenant. Super-admins see all
// tenants unless the viewing-tenant override narrows them to one.
func Read(caller *auth.User, viewingTenant string) Verdict {
	if caller == nil {
		return Deny()
	}
	if caller.IsSuperAdmin {
		return superVerdict(viewingTenant)
	}
	if home := caller.HomeTenant(); home != "" {
		return ScopeToTenant(home)
	}
	return Deny()
}

// Create gates creation. For non-privileged callers this is a binary
// decision, not a filter: there is no existing record to scope. The
// creation-time tenant stamping (AssignTenant) supplies the tenant.
func Create(caller *auth.User, viewingTenant string) Verdict {
	if caller == nil {
		return Deny()
	}
	if caller.IsSuperAdmin {
		return superVerdict(viewingTenant)
	}
	if caller.HomeTenant() != "" {
		return Allow()
	}
	return Deny()
}

// Update scopes updates to the caller's home tenant, same shape as Read.
func Update(caller *auth.User, viewingTenant string) Verdict {
	return Read(caller, viewingTenant)
}

// Delete scopes deletes to the caller's home tenant, same shape as Read.
func Delete(caller *auth.User, viewingTenant string) Verdict {
	return Read(caller, viewingTenant)
}

// RoleGated returns a decider that additionally requires the caller's role
// to be one of the allowed roles. Super-admins bypass the role check but
// still honor the viewing-tenant override.
func RoleGated(roles ...auth.Role) Decider {
	allowed := make(map[auth.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(caller *auth.User, viewingTenant string) Verdict {
		if caller == nil {
			return Deny()
		}
		if caller.IsSuperAdmin {
			return superVerdict(viewingTenant)
		}
		if !allowed[caller.Role] {
			return Deny()
		}
		if home := caller.HomeTenant(); home != "" {
			return ScopeToTenant(home)
		}
		return Deny()
	}
}

// AdminOnly requires the tenant-admin role for non-privileged callers.
func AdminOnly(caller *auth.User, viewingTenant string) Verdict {
	return RoleGated(auth.RoleAdmin)(caller, viewingTenant)
}

// RoleGatedCreate returns a binary create gate with a role requirement.
func RoleGatedCreate(roles ...auth.Role) Decider {
	gate := RoleGated(roles...)
	return func(caller *auth.User, viewingTenant string) Verdict {
		v := gate(caller, viewingTenant)
		// Non-privileged creates collapse to a boolean gate; super-admin
		// scoping passes through so the stamped tenant can be checked.
		if v.Kind == VerdictScoped && caller != nil && !caller.IsSuperAdmin {
			return Allow()
		}
		return v
	}
}

// PublicRead allows reads for everyone, including unauthenticated callers.
// This is a per-collection policy choice for externally served assets.
func PublicRead(caller *auth.User, viewingTenant string) Verdict {
	return Allow()
}

// SuperAdminOnly allows only global-privileged callers, still honoring the
// viewing-tenant override.
func SuperAdminOnly(caller *auth.User, viewingTenant string) Verdict {
	if caller == nil || !caller.IsSuperAdmin {
		return Deny()
	}
	return superVerdict(viewingTenant)
}

// SuperAdminGate is a binary variant of SuperAdminOnly for operations on
// non-tenant-scoped records (tenant creation itself). The override does not
// apply because there is no tenant column to filter.
func SuperAdminGate(caller *auth.User, viewingTenant string) Verdict {
	if caller == nil || !caller.IsSuperAdmin {
		return Deny()
	}
	return Allow()
}

// CollectionPolicy bundles the deciders for one resource collection
type CollectionPolicy struct {
	Read   Decider
	Create Decider
	Update Decider
	Delete Decider
}

// Decide dispatches to the decider for the given operation. Unknown
// operations fail closed.
func (p CollectionPolicy) Decide(op Operation, caller *auth.User, viewingTenant string) Verdict {
	var d Decider
	switch op {
	case OperationRead:
		d = p.Read
	case OperationCreate:
		d = p.Create
	case OperationUpdate:
		d = p.Update
	case OperationDelete:
		d = p.Delete
	}
	if d == nil {
		return Deny()
	}
	return d(caller, viewingTenant)
}

// FullTenantIsolation scopes every operation to the caller's tenant.
func FullTenantIsolation() CollectionPolicy {
	return CollectionPolicy{
		Read:   Read,
		Create: Create,
		Update: Update,
		Delete: Delete,
	}
}

// PublicReadTenantWrite allows anonymous reads with tenant-scoped writes,
// used for externally served assets like media.
func PublicReadTenantWrite() CollectionPolicy {
	return CollectionPolicy{
		Read:   PublicRead,
		Create: Create,
		Update: Update,
		Delete: Delete,
	}
}

// AdminManaged requires the tenant-admin role for all writes.
func AdminManaged() CollectionPolicy {
	return CollectionPolicy{
		Read:   Read,
		Create: RoleGatedCreate(auth.RoleAdmin),
		Update: AdminOnly,
		Delete: AdminOnly,
	}
}

// TenantsPolicy covers the tenants directory itself. Only super-admins
// manage tenants; non-privileged callers may read exactly their own tenant
// record. The scope field here is the tenant's own ID, not a tenant
// reference column.
func TenantsPolicy() CollectionPolicy {
	return CollectionPolicy{
		Read: func(caller *auth.User, viewingTenant string) Verdict {
			if caller == nil {
				return Deny()
			}
			if caller.IsSuperAdmin {
				return Allow()
			}
			if home := caller.HomeTenant(); home != "" {
				return ScopeToTenant(home)
			}
			return Deny()
		},
		Create: SuperAdminGate,
		Update: SuperAdminGate,
		Delete: SuperAdminGate,
	}
}
