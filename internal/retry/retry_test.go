package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transientErr struct{ msg string }

func (e *transientErr) Error() string   { return e.msg }
func (e *transientErr) Transient() bool { return true }

func TestExponentialDelay(t *testing.T) {
	tests := []struct {
		name    string
		initial time.Duration
		max     time.Duration
		attempt int
		want    time.Duration
	}{
		{"first retry", 2 * time.Second, 2 * time.Minute, 1, 2 * time.Second},
		{"second retry doubles", 2 * time.Second, 2 * time.Minute, 2, 4 * time.Second},
		{"fifth retry", 2 * time.Second, 2 * time.Minute, 5, 32 * time.Second},
		{"capped at max", 2 * time.Second, 2 * time.Minute, 10, 2 * time.Minute},
		{"zero max means uncapped", time.Second, 0, 8, 128 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExponential(tt.initial, tt.max)
			assert.Equal(t, tt.want, e.Delay(tt.attempt))
		})
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, Strategy: &Constant{Interval: time.Millisecond}}, func(context.Context) error {
		calls++
		if calls < 3 {
			return &transientErr{msg: "timeout"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("login required")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, Strategy: &Constant{Interval: time.Millisecond}}, func(context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, Strategy: &Constant{Interval: time.Millisecond}}, func(context.Context) error {
		calls++
		return &transientErr{msg: "503"}
	})
	assert.Equal(t, 3, calls)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)

	var last *transientErr
	assert.True(t, errors.As(err, &last), "exhausted error should wrap the last failure")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, Policy{MaxAttempts: 10, Strategy: &Constant{Interval: time.Hour}}, func(context.Context) error {
		calls++
		return &transientErr{msg: "timeout"}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&transientErr{msg: "x"}))
	assert.True(t, IsTransient(errors.Join(errors.New("wrapper"), &transientErr{msg: "x"})))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}
