package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/types"
)

func testJob(identity string) types.JobRecord {
	return types.JobRecord{
		Identity:     types.Identity(identity),
		URL:          "https://example.com/jobs/1",
		Title:        "Backend Engineer",
		Company:      "Acme",
		Location:     "Remote",
		Platform:     types.PlatformGreenhouse,
		DiscoveredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryPutJobIdempotent(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	first, err := store.PutJob(ctx, testJob("job-1"))
	require.NoError(t, err)
	require.NotNil(t, first)

	// Re-discovery with different fields must not replace the stored record.
	changed := testJob("job-1")
	changed.Title = "Staff Engineer"
	second, err := store.PutJob(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", second.Title)
}

func TestMemoryCreateApplicationDuplicate(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	job := testJob("job-1")
	first, err := store.CreateApplication(ctx, types.NewApplication(job, now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)

	second, err := store.CreateApplication(ctx, types.NewApplication(job, now.Add(time.Hour)))
	require.Error(t, err)

	var dup *DuplicateIdentityError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, dup.Existing.ID)
}

func TestMemoryUpdateApplicationVersionConflict(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	app, err := store.CreateApplication(ctx, types.NewApplication(testJob("job-1"), now))
	require.NoError(t, err)

	updated, err := store.UpdateApplication(ctx, app.Identity, app.Version, func(a *types.ApplicationRecord) error {
		a.Status = types.StatusAnalyzing
		a.UpdatedAt = now.Add(time.Minute)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, types.StatusAnalyzing, updated.Status)

	// A writer still holding the old version must get a conflict, not a
	// silent overwrite.
	_, err = store.UpdateApplication(ctx, app.Identity, app.Version, func(a *types.ApplicationRecord) error {
		a.Status = types.StatusReady
		return nil
	})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(1), conflict.Expected)
	assert.Equal(t, int64(2), conflict.Actual)

	current, err := store.GetApplication(ctx, app.Identity)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAnalyzing, current.Status)
}

func TestMemoryUpdateApplicationMutationError(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	app, err := store.CreateApplication(ctx, types.NewApplication(testJob("job-1"), now))
	require.NoError(t, err)

	boom := errors.New("mutation rejected")
	_, err = store.UpdateApplication(ctx, app.Identity, app.Version, func(a *types.ApplicationRecord) error {
		a.Status = types.StatusReady
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, err := store.GetApplication(ctx, app.Identity)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDiscovered, current.Status)
	assert.Equal(t, int64(1), current.Version)
}

func TestMemoryUpdateApplicationNotFound(t *testing.T) {
	store := NewMemory()

	_, err := store.UpdateApplication(context.Background(), "missing", 1, func(a *types.ApplicationRecord) error {
		return nil
	})
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestMemoryClonesDoNotShareState(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	app, err := store.CreateApplication(ctx, types.NewApplication(testJob("job-1"), now))
	require.NoError(t, err)

	// Mutating the handed-out record must not leak into the store.
	app.Status = types.StatusWithdrawn
	app.History = append(app.History, types.StatusChange{Status: types.StatusWithdrawn, OccurredAt: now})

	current, err := store.GetApplication(ctx, app.Identity)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDiscovered, current.Status)
	assert.Len(t, current.History, 1)
}

func TestMemoryListApplicationsByStatus(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"job-1", "job-2", "job-3"} {
		job := testJob(id)
		job.Identity = types.Identity(id)
		app := types.NewApplication(job, now.Add(time.Duration(i)*time.Minute))
		_, err := store.CreateApplication(ctx, app)
		require.NoError(t, err)
	}

	apps, err := store.ListApplicationsByStatus(ctx, types.StatusDiscovered)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	// Newest update first.
	assert.Equal(t, types.Identity("job-3"), apps[0].Identity)

	ready, err := store.ListApplicationsByStatus(ctx, types.StatusReady)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestMemoryActionEvents(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendActionEvent(ctx, "application_submit", base.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, store.AppendActionEvent(ctx, "company_search", base))

	events, err := store.ActionEventsSince(ctx, "application_submit", base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].OccurredAt.Equal(base.Add(time.Hour)))

	none, err := store.ActionEventsSince(ctx, "application_submit", base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryPipelineStats(t *testing.T) {
	// Exercised through the interface: every consumer reaches stats the
	// same way the status report does.
	var store Store = NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"job-1", "job-2"} {
		_, err := store.CreateApplication(ctx, types.NewApplication(testJob(id), now))
		require.NoError(t, err)
	}
	_, err := store.UpdateApplication(ctx, "job-2", 1, func(app *types.ApplicationRecord) error {
		app.Status = types.StatusReady
		return nil
	})
	require.NoError(t, err)

	stats, err := store.PipelineStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[types.StatusDiscovered])
	assert.Equal(t, 1, stats[types.StatusReady])
}
