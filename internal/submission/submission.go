// Package submission automates application form submission and classifies
// its failures so callers can decide between retrying, escalating, and
// pausing the pipeline.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-agent/internal/types"
)

// Confirmation records a completed submission.
type Confirmation struct {
	Company      string    `json:"company"`
	Role         string    `json:"role"`
	URL          string    `json:"url"`
	DocumentPath string    `json:"document_path"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// TransientError is a submission failure worth retrying: network flakes,
// timeouts, pages that failed to load.
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TransientError) Unwrap() error { return e.Cause }

// Transient marks the error as retryable.
func (e *TransientError) Transient() bool { return true }

// PermanentError is a submission failure that retrying cannot fix: missing
// documents, closed postings, malformed requests.
type PermanentError struct {
	Message string
	Cause   error
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error { return e.Cause }

// AuthExpiredError means the site no longer recognizes our session and is
// asking for credentials. Like a captcha it halts the whole pipeline: every
// further attempt would hit the same wall until an operator signs back in
// and explicitly resumes.
type AuthExpiredError struct {
	URL string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("authentication expired at %s", e.URL)
}

// CaptchaDetectedError means the site served a human-verification challenge.
// It is neither retried nor skipped: the whole pipeline pauses until an
// operator resolves the challenge and explicitly resumes.
type CaptchaDetectedError struct {
	URL string
}

func (e *CaptchaDetectedError) Error() string {
	return fmt.Sprintf("captcha challenge detected at %s", e.URL)
}

// Submitter submits one prepared application.
type Submitter interface {
	Submit(ctx context.Context, job types.JobRecord, documentPath string, answers []ResolvedAnswer) (*Confirmation, error)
}
