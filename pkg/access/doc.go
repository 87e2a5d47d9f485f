// Package access implements the tenant-isolation access-control model.
//
// Every read/write on a tenant-scoped collection is gated by a pure decision
// function that maps (caller, viewing-tenant override, operation) to a
// Verdict: unrestricted access, a hard denial, or a filter scoping the
// operation to exactly one tenant. The viewing-tenant override narrows a
// super-admin's surface to a single tenant and is ignored entirely for
// everyone else.
//
// Decisions are advisory filters: a scoped verdict referencing a nonexistent
// tenant simply matches zero records. The package performs no I/O.
package access
