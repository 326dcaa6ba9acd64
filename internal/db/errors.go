package db

import (
	"fmt"

	"github.com/jonathan/job-agent/internal/types"
)

// ConflictError signals that an application record was concurrently modified
// between read and update. Callers retry by re-reading and re-evaluating; it
// is never surfaced to the end user.
type ConflictError struct {
	Identity types.Identity
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: expected %d, found %d", e.Identity, e.Expected, e.Actual)
}

// DuplicateIdentityError signals that an application already exists for the
// identity. It is non-fatal: the existing record accompanies it.
type DuplicateIdentityError struct {
	Identity types.Identity
	Existing *types.ApplicationRecord
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("application already exists for identity %s", e.Identity)
}

// NotFoundError is returned by update paths when no record exists for the
// identity.
type NotFoundError struct {
	Identity types.Identity
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no application record for identity %s", e.Identity)
}
