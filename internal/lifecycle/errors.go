// Package lifecycle defines the application status graph and validates transitions.
package lifecycle

import (
	"fmt"

	"github.com/jonathan/job-agent/internal/types"
)

// InvalidTransitionError is returned when a requested transition is not in
// the transition table. The record is left unchanged.
type InvalidTransitionError struct {
	From types.Status
	To   types.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// UnknownStatusError is returned when a status outside the closed enum is
// requested.
type UnknownStatusError struct {
	Status types.Status
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status: %q", e.Status)
}
