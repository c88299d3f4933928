/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All reportable error types in one place. Per-record problems (a payment
  that fails validation, an appointment pointing at a deleted service) are
  never errors - those rows are dropped and the run continues. Only
  top-level input problems surface to the caller.

ERROR CATEGORIES:
  1. Snapshot errors - a required collection was never fetched
  2. Timezone errors - the business timezone string does not resolve
  3. Lookup errors   - the caller asked for a staff member that isn't there

USAGE:
  if errors.Is(err, payroll.ErrMissingCollection) {
      // caller forgot to fetch an input feed
  }

SEE ALSO:
  - types.go:     Snapshot.Validate
  - daterange.go: NewRangeResolver
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingCollection is returned when a snapshot collection is nil.
	ErrMissingCollection = errors.New("missing input collection")

	// ErrUnknownTimezone is returned when the business timezone string
	// cannot be loaded as an IANA location.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrStaffNotFound is returned by the detail view when the requested
	// staff member is not in the roster snapshot.
	ErrStaffNotFound = errors.New("staff member not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingCollectionError names which input collection was nil.
type MissingCollectionError struct {
	Collection string
}

func (e *MissingCollectionError) Error() string {
	return fmt.Sprintf("missing input collection: %s", e.Collection)
}

func (e *MissingCollectionError) Unwrap() error { return ErrMissingCollection }

// UnknownTimezoneError carries the offending zone string.
type UnknownTimezoneError struct {
	Zone string
	Err  error
}

func (e *UnknownTimezoneError) Error() string {
	return fmt.Sprintf("unknown timezone %q: %v", e.Zone, e.Err)
}

func (e *UnknownTimezoneError) Unwrap() error { return ErrUnknownTimezone }
