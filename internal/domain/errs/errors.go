// Package errs defines the error kinds shared by the store backends, the
// application services, and the HTTP layer. Stores and services return these;
// handlers translate them to status codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing entity (user, project, entry).
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a unique-key violation (username, project name).
	ErrConflict = errors.New("already exists")
	// ErrUnauthorized signals a missing session or insufficient role.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CapacityError rejects an entry that would push the per-(user,date) total
// over the one-day cap. Current and Date are carried so callers can render
// an exact message instead of a generic rejection.
type CapacityError struct {
	Date      string
	Current   float64
	Requested float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("cannot exceed 1 day per date: already logged %g days for %s", e.Current, e.Date)
}
