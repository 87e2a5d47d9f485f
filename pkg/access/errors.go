package access

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for authorization failures.
var (
	// ErrUnauthenticated is returned when no caller is present where one
	// is required. Surfaced before any tenant logic runs.
	ErrUnauthenticated = errors.New("access: authentication required")

	// ErrDenied is returned for every denied decision regardless of which
	// check failed, so callers cannot probe for tenant existence or role
	// assignments.
	ErrDenied = errors.New("access: denied")
)

// DuplicateSingletonError indicates an authorized creation that conflicts
// with a one-per-tenant constraint. Distinct from a denial: the caller
// should edit the existing record instead.
type DuplicateSingletonError struct {
	Collection string
	TenantID   string
	ExistingID string
}

func (e *DuplicateSingletonError) Error() string {
	return fmt.Sprintf("a %s record already exists for tenant %s; edit the existing record instead",
		e.Collection, e.TenantID)
}

// IsDuplicateSingleton reports whether err is a singleton conflict
func IsDuplicateSingleton(err error) bool {
	var dup *DuplicateSingletonError
	return errors.As(err, &dup)
}
