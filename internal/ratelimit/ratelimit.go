// Package ratelimit provides sliding-window rate limiting over a durable
// action log, so budgets survive process restarts.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-agent/internal/db"
)

// EventLog is the slice of the store the limiter needs: an append-only log
// of admitted actions, queryable by category and time.
type EventLog interface {
	AppendActionEvent(ctx context.Context, category string, at time.Time) error
	ActionEventsSince(ctx context.Context, category string, since time.Time) ([]db.ActionEvent, error)
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the action could next be admitted. Zero
	// when allowed.
	RetryAfter time.Duration
	// Remaining is the smallest remaining budget across the category's
	// windows at decision time.
	Remaining int
}

// Limiter decides admission for action categories against their configured
// windows. Denied actions are never recorded, so a denial cannot extend the
// denial period.
type Limiter struct {
	log    EventLog
	config *Config
	now    func() time.Time
}

// NewLimiter creates a limiter backed by the given event log.
func NewLimiter(log EventLog, config *Config) *Limiter {
	if config == nil {
		config = LoadConfig()
	}
	return &Limiter{log: log, config: config, now: time.Now}
}

// Check evaluates admission for the category without recording anything.
func (l *Limiter) Check(ctx context.Context, category string) (Decision, error) {
	if !l.config.Enabled {
		return Decision{Allowed: true}, nil
	}

	windows, ok := l.config.Windows[category]
	if !ok || len(windows) == 0 {
		// Unconfigured categories are unlimited.
		return Decision{Allowed: true}, nil
	}

	now := l.now().UTC()
	decision := Decision{Allowed: true, Remaining: -1}
	for _, w := range windows {
		events, err := l.log.ActionEventsSince(ctx, category, now.Add(-w.Span))
		if err != nil {
			return Decision{}, fmt.Errorf("failed to read action events for %s: %w", category, err)
		}

		remaining := w.Limit - len(events)
		if remaining < 0 {
			remaining = 0
		}
		if decision.Remaining < 0 || remaining < decision.Remaining {
			decision.Remaining = remaining
		}

		if len(events) < w.Limit {
			continue
		}

		// The window reopens once enough of its oldest events age out.
		decision.Allowed = false
		reopensAt := events[len(events)-w.Limit].OccurredAt.Add(w.Span)
		if wait := reopensAt.Sub(now); wait > decision.RetryAfter {
			decision.RetryAfter = wait
		}
	}

	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	return decision, nil
}

// Allow evaluates admission for the category and, when admitted, records
// the action in the log in the same call.
func (l *Limiter) Allow(ctx context.Context, category string) (Decision, error) {
	decision, err := l.Check(ctx, category)
	if err != nil || !decision.Allowed {
		return decision, err
	}

	if l.config.Enabled {
		if err := l.log.AppendActionEvent(ctx, category, l.now().UTC()); err != nil {
			return Decision{}, fmt.Errorf("failed to record action event for %s: %w", category, err)
		}
		if decision.Remaining > 0 {
			decision.Remaining--
		}
	}
	return decision, nil
}
