package access

import "fmt"

// Operation identifies the kind of access being decided
type Operation string

const (
	OperationRead   Operation = "read"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// VerdictKind tags the outcome of an access decision
type VerdictKind int

const (
	// VerdictDeny is the zero value so an uninitialized Verdict fails closed.
	VerdictDeny VerdictKind = iota
	// VerdictAllow grants unrestricted access.
	VerdictAllow
	// VerdictScoped restricts visible/mutable records to one tenant.
	VerdictScoped
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictAllow:
		return "allow"
	case VerdictScoped:
		return "scoped"
	default:
		return "deny"
	}
}

// Verdict is the outcome of an access decision
type Verdict struct {
	Kind VerdictKind
	// TenantID is set only when Kind is VerdictScoped.
	TenantID string
}

// Allow returns an unrestricted verdict
func Allow() Verdict {
	return Verdict{Kind: VerdictAllow}
}

// Deny returns a hard denial
func Deny() Verdict {
	return Verdict{Kind: VerdictDeny}
}

// ScopeToTenant returns a verdict restricting access to one tenant.
// An empty tenant ID scopes to nothing, which matches zero records.
func ScopeToTenant(tenantID string) Verdict {
	return Verdict{Kind: VerdictScoped, TenantID: tenantID}
}

// Permits reports whether the verdict allows the operation to proceed at
// all. A scoped verdict permits the operation but must be narrowed by its
// filter.
func (v Verdict) Permits() bool {
	return v.Kind != VerdictDeny
}

// Filter returns the tenant filter a downstream query layer must AND into
// its predicate, or nil when no restriction applies.
func (v Verdict) Filter() *TenantFilter {
	if v.Kind != VerdictScoped {
		return nil
	}
	return &TenantFilter{Field: "tenant_id", Equals: v.TenantID}
}

func (v Verdict) String() string {
	if v.Kind == VerdictScoped {
		return fmt.Sprintf("scoped(%s)", v.TenantID)
	}
	return v.Kind.String()
}

// TenantFilter is the query filter primitive consumed by the storage layer:
// records match when Field equals Equals. It deliberately carries no other
// operators.
type TenantFilter struct {
	Field  string
	Equals string
}

// Matches reports whether a record with the given tenant reference passes
// the filter.
func (f *TenantFilter) Matches(tenantID string) bool {
	if f == nil {
		return true
	}
	return f.Equals == tenantID
}
