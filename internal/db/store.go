// Package db provides durable keyed storage for job and application records
// and the append-only action-event log.
package db

import (
	"context"
	"time"

	"github.com/jonathan/job-agent/internal/types"
)

// Mutation applies a partial update to an application record inside an
// update transaction. The record passed in is a private copy; mutations to
// it are persisted atomically with a version bump.
type Mutation func(app *types.ApplicationRecord) error

// ActionEvent is one admitted action in the append-only log.
type ActionEvent struct {
	Category   string    `json:"category"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store is the record store contract consumed by the deduplication index,
// rate limiter, gate, and orchestrator. All operations are atomic per
// record; no cross-record transactions are offered.
type Store interface {
	// PutJob inserts a job record, or idempotently no-ops when a record with
	// the same identity exists. The stored record is returned either way.
	PutJob(ctx context.Context, job types.JobRecord) (*types.JobRecord, error)

	// GetJobByIdentity returns the job record for the identity, or nil.
	GetJobByIdentity(ctx context.Context, id types.Identity) (*types.JobRecord, error)

	// CreateApplication stores a new application record. If one already
	// exists for the identity, the existing record is returned along with a
	// *DuplicateIdentityError (idempotent reject).
	CreateApplication(ctx context.Context, app *types.ApplicationRecord) (*types.ApplicationRecord, error)

	// GetApplication returns the application record for the identity, or nil.
	GetApplication(ctx context.Context, id types.Identity) (*types.ApplicationRecord, error)

	// UpdateApplication applies the mutation under an optimistic version
	// check: expectedVersion must match the stored version or the update
	// fails with *ConflictError and nothing is written.
	UpdateApplication(ctx context.Context, id types.Identity, expectedVersion int64, mutate Mutation) (*types.ApplicationRecord, error)

	// ListApplicationsByStatus returns all applications at the status,
	// newest update first.
	ListApplicationsByStatus(ctx context.Context, status types.Status) ([]*types.ApplicationRecord, error)

	// AppendActionEvent atomically appends an admitted action to the log.
	AppendActionEvent(ctx context.Context, category string, at time.Time) error

	// ActionEventsSince returns events for the category at or after since,
	// oldest first. Events are never deleted; expiry happens in the caller's
	// window arithmetic.
	ActionEventsSince(ctx context.Context, category string, since time.Time) ([]ActionEvent, error)

	// PipelineStats returns the application count per status.
	PipelineStats(ctx context.Context) (map[types.Status]int, error)
}
