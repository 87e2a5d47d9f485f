package access

import (
	"github.com/sitehaven/sitehaven/pkg/auth"
)

// AssignTenant is the pre-persistence stamping rule for tenant-scoped
// records. It runs only on create:
//
//   - An already-set tenant is left unchanged; this is how a super-admin
//     explicitly assigns a record to an arbitrary tenant. Callers without
//     global privilege may only name their own home tenant, which the
//     handler enforces after stamping.
//   - Otherwise a non-privileged caller's home tenant is stamped.
//   - Otherwise the tenant stays unset, which validation must reject
//     before persistence.
//
// The function is idempotent: applying it twice yields the same result.
func AssignTenant(caller *auth.User, op Operation, tenantID string) string {
	if op != OperationCreate {
		return tenantID
	}
	if tenantID != "" {
		return tenantID
	}
	if caller != nil && !caller.IsSuperAdmin {
		return caller.HomeTenant()
	}
	return ""
}
