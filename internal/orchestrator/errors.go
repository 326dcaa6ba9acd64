package orchestrator

import (
	"fmt"
	"time"

	"github.com/jonathan/job-agent/internal/types"
)

// OperationFailedError reports a pipeline step that kept failing transiently
// until its retry budget ran out. It wraps the last attempt's error.
type OperationFailedError struct {
	Operation types.OperationKind
	Company   string
	Role      string
	Attempts  int
	Err       error
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("operation %s failed for %s at %s after %d attempts: %v",
		e.Operation, e.Role, e.Company, e.Attempts, e.Err)
}

func (e *OperationFailedError) Unwrap() error {
	return e.Err
}

// RateLimitDeniedError reports a submission attempt denied by the rate
// limiter. The caller may reschedule after RetryAfter.
type RateLimitDeniedError struct {
	Category   string
	RetryAfter time.Duration
}

func (e *RateLimitDeniedError) Error() string {
	return fmt.Sprintf("rate limit denied for %s, retry after %s", e.Category, e.RetryAfter)
}

// PausedError reports that submissions are halted process-wide and an
// explicit resume is required before any more are attempted.
type PausedError struct {
	Reason string
}

func (e *PausedError) Error() string {
	if e.Reason == "" {
		return "submissions are paused"
	}
	return "submissions are paused: " + e.Reason
}
