package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonathan/job-agent/internal/types"
)

// Memory is an in-memory store. It backs tests and database-less runs with
// the same contract the Postgres store offers, including version conflicts
// and idempotent creates.
type Memory struct {
	mu     sync.Mutex
	jobs   map[types.Identity]*types.JobRecord
	apps   map[types.Identity]*types.ApplicationRecord
	events map[string][]ActionEvent
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:   make(map[types.Identity]*types.JobRecord),
		apps:   make(map[types.Identity]*types.ApplicationRecord),
		events: make(map[string][]ActionEvent),
	}
}

// PutJob inserts a job record, no-oping when the identity already exists.
func (m *Memory) PutJob(_ context.Context, job types.JobRecord) (*types.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.jobs[job.Identity]; ok {
		cp := *existing
		return &cp, nil
	}
	stored := job
	m.jobs[job.Identity] = &stored
	cp := stored
	return &cp, nil
}

// GetJobByIdentity returns the job record for the identity, or nil.
func (m *Memory) GetJobByIdentity(_ context.Context, id types.Identity) (*types.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

// CreateApplication stores a new application, returning the existing record
// and a *DuplicateIdentityError when one already exists.
func (m *Memory) CreateApplication(_ context.Context, app *types.ApplicationRecord) (*types.ApplicationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.apps[app.Identity]; ok {
		return existing.Clone(), &DuplicateIdentityError{Identity: app.Identity, Existing: existing.Clone()}
	}

	stored := app.Clone()
	stored.Version = 1
	m.apps[app.Identity] = stored
	return stored.Clone(), nil
}

// GetApplication returns the application record for the identity, or nil.
func (m *Memory) GetApplication(_ context.Context, id types.Identity) (*types.ApplicationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	return app.Clone(), nil
}

// UpdateApplication applies the mutation under an optimistic version check.
func (m *Memory) UpdateApplication(_ context.Context, id types.Identity, expectedVersion int64, mutate Mutation) (*types.ApplicationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.apps[id]
	if !ok {
		return nil, &NotFoundError{Identity: id}
	}
	if stored.Version != expectedVersion {
		return nil, &ConflictError{Identity: id, Expected: expectedVersion, Actual: stored.Version}
	}

	working := stored.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}

	working.Version++
	if working.UpdatedAt.IsZero() {
		working.UpdatedAt = time.Now().UTC()
	}
	m.apps[id] = working
	return working.Clone(), nil
}

// ListApplicationsByStatus returns all applications at the status, newest
// update first.
func (m *Memory) ListApplicationsByStatus(_ context.Context, status types.Status) ([]*types.ApplicationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var apps []*types.ApplicationRecord
	for _, app := range m.apps {
		if app.Status == status {
			apps = append(apps, app.Clone())
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].UpdatedAt.After(apps[j].UpdatedAt)
	})
	return apps, nil
}

// PipelineStats returns application counts grouped by status.
func (m *Memory) PipelineStats(_ context.Context) (map[types.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[types.Status]int)
	for _, app := range m.apps {
		stats[app.Status]++
	}
	return stats, nil
}

// AppendActionEvent atomically appends an admitted action to the log.
func (m *Memory) AppendActionEvent(_ context.Context, category string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events[category] = append(m.events[category], ActionEvent{Category: category, OccurredAt: at})
	return nil
}

// ActionEventsSince returns events for the category at or after since,
// oldest first.
func (m *Memory) ActionEventsSince(_ context.Context, category string, since time.Time) ([]ActionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []ActionEvent
	for _, e := range m.events[category] {
		if !e.OccurredAt.Before(since) {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return events, nil
}

var _ Store = (*Memory)(nil)
var _ Store = (*Postgres)(nil)
