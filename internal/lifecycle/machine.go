package lifecycle

import (
	"time"

	"github.com/jonathan/job-agent/internal/types"
)

// transitions is the closed transition table. A status maps to the set of
// statuses it may move to. Withdrawn is handled separately: every
// non-terminal status may withdraw.
var transitions = map[types.Status][]types.Status{
	types.StatusDiscovered:   {types.StatusAnalyzing},
	types.StatusAnalyzing:    {types.StatusReady, types.StatusDiscovered},
	types.StatusReady:        {types.StatusApplied},
	types.StatusApplied:      {types.StatusResponded, types.StatusFollowUpPending},
	types.StatusResponded:    {types.StatusInterviewing},
	types.StatusInterviewing: {types.StatusOffer, types.StatusRejected},
}

// CanTransition reports whether from -> to is a valid transition.
func CanTransition(from, to types.Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == types.StatusWithdrawn {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Apply validates and applies a transition on the record, appending a status
// history entry. It is fail-fast: on error the record is untouched.
func Apply(app *types.ApplicationRecord, to types.Status, at time.Time, note string) error {
	if !to.Valid() {
		return &UnknownStatusError{Status: to}
	}
	if !CanTransition(app.Status, to) {
		return &InvalidTransitionError{From: app.Status, To: to}
	}

	app.Status = to
	app.History = append(app.History, types.StatusChange{
		Status:     to,
		OccurredAt: at,
		Note:       note,
	})
	app.UpdatedAt = at
	return nil
}

// NextStatuses returns the statuses reachable from the given status.
func NextStatuses(from types.Status) []types.Status {
	var next []types.Status
	next = append(next, transitions[from]...)
	if !from.Terminal() && from.Valid() {
		next = append(next, types.StatusWithdrawn)
	}
	return next
}
