package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/db"
)

func testLimiter(windows map[string][]Window) (*Limiter, *db.Memory, *time.Time) {
	store := db.NewMemory()
	limiter := NewLimiter(store, &Config{Enabled: true, Windows: windows})
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, store, &now
}

func TestAllowWithinBudget(t *testing.T) {
	limiter, _, _ := testLimiter(map[string][]Window{
		CategorySubmit: {{Limit: 5, Span: time.Hour}},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		decision, err := limiter.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "submission %d should be admitted", i+1)
	}
}

func TestDenyWhenWindowFull(t *testing.T) {
	limiter, _, now := testLimiter(map[string][]Window{
		CategorySubmit: {{Limit: 5, Span: time.Hour}},
	})
	ctx := context.Background()

	// Fill the hourly window with events ten minutes apart.
	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
		*now = now.Add(10 * time.Minute)
	}

	// Sixth attempt at t+50m: the oldest event (t+0) leaves the window at
	// t+60m, so retry-after is ten minutes.
	decision, err := limiter.Allow(ctx, CategorySubmit)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 10*time.Minute, decision.RetryAfter)
	assert.Equal(t, 0, decision.Remaining)
}

func TestDenialDoesNotExtendDenial(t *testing.T) {
	limiter, store, now := testLimiter(map[string][]Window{
		CategorySubmit: {{Limit: 2, Span: time.Hour}},
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		decision, err := limiter.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	}

	// Denied attempts must leave no trace in the log.
	events, err := store.ActionEventsSince(ctx, CategorySubmit, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	// Once the window ages out, admission resumes immediately.
	*now = now.Add(time.Hour + time.Second)
	decision, err := limiter.Allow(ctx, CategorySubmit)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRetryAfterIsMaxAcrossViolatedWindows(t *testing.T) {
	limiter, _, now := testLimiter(map[string][]Window{
		CategorySubmit: {
			{Limit: 2, Span: time.Hour},
			{Limit: 2, Span: 24 * time.Hour},
		},
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := limiter.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
	}

	// Both windows are violated; the daily window takes longer to reopen
	// and must win.
	*now = now.Add(30 * time.Minute)
	decision, err := limiter.Allow(ctx, CategorySubmit)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 23*time.Hour+30*time.Minute, decision.RetryAfter)
}

func TestCheckDoesNotConsume(t *testing.T) {
	limiter, store, now := testLimiter(map[string][]Window{
		CategorySubmit: {{Limit: 3, Span: time.Hour}},
	})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		decision, err := limiter.Check(ctx, CategorySubmit)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 3, decision.Remaining)
	}

	events, err := store.ActionEventsSince(ctx, CategorySubmit, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUnconfiguredCategoryIsUnlimited(t *testing.T) {
	limiter, _, _ := testLimiter(map[string][]Window{})
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		decision, err := limiter.Allow(ctx, "profile_view")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
}

func TestDisabledLimiterAdmitsEverything(t *testing.T) {
	store := db.NewMemory()
	limiter := NewLimiter(store, &Config{Enabled: false})
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		decision, err := limiter.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
}

func TestBudgetsSurviveRestart(t *testing.T) {
	store := db.NewMemory()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	windows := map[string][]Window{
		CategorySubmit: {{Limit: 2, Span: time.Hour}},
	}
	ctx := context.Background()

	first := NewLimiter(store, &Config{Enabled: true, Windows: windows})
	first.now = func() time.Time { return now }
	for i := 0; i < 2; i++ {
		_, err := first.Allow(ctx, CategorySubmit)
		require.NoError(t, err)
	}

	// A fresh limiter over the same log sees the spent budget.
	second := NewLimiter(store, &Config{Enabled: true, Windows: windows})
	second.now = func() time.Time { return now }
	decision, err := second.Allow(ctx, CategorySubmit)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestLoadConfigWith_Ceilings(t *testing.T) {
	cfg := LoadConfigWith(Ceilings{SubmitHourly: 2, SearchHourly: 10})
	require.True(t, cfg.Enabled)

	submit := cfg.Windows[CategorySubmit]
	require.Len(t, submit, 2)
	assert.Equal(t, 2, submit[0].Limit)
	assert.Equal(t, time.Hour, submit[0].Span)
	// Unset ceilings keep the stock limits.
	assert.Equal(t, 20, submit[1].Limit)
	assert.Equal(t, 10, cfg.Windows[CategorySearch][0].Limit)
}

func TestLoadConfigWith_EnvOverridesCeilings(t *testing.T) {
	t.Setenv("RATE_LIMIT_SUBMIT_HOURLY", "1")

	cfg := LoadConfigWith(Ceilings{SubmitHourly: 7})
	assert.Equal(t, 1, cfg.Windows[CategorySubmit][0].Limit)
}
