// Package retry provides bounded retry execution with pluggable delay
// strategies. Strategies are stateless and safe for concurrent use.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// DefaultStrategy returns the default delay strategy: exponential with
// 2s initial and 2m max.
func DefaultStrategy() Strategy {
	return NewExponential(2*time.Second, 2*time.Minute)
}

// Policy bounds how often an operation may be retried and how long to wait
// between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	Strategy    Strategy
}

// ExhaustedError reports that an operation kept failing transiently until
// its attempt budget ran out. It wraps the last error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error (or any error it wraps) marks
// itself as transient. Errors without a Transient method are treated as
// permanent.
func IsTransient(err error) bool {
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}

// Do runs op until it succeeds, fails permanently, or the attempt budget
// runs out. Between transient failures it waits per the policy's strategy,
// honoring context cancellation. Permanent errors are returned immediately
// without consuming further attempts.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	strategy := policy.Strategy
	if strategy == nil {
		strategy = DefaultStrategy()
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(strategy.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ExhaustedError{Attempts: policy.MaxAttempts, Err: lastErr}
}
