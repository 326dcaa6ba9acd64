package types

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an application. The valid transitions
// between statuses are owned by the lifecycle package.
type Status string

// Application statuses
const (
	StatusDiscovered      Status = "discovered"
	StatusAnalyzing       Status = "analyzing"
	StatusReady           Status = "ready"
	StatusApplied         Status = "applied"
	StatusResponded       Status = "responded"
	StatusInterviewing    Status = "interviewing"
	StatusOffer           Status = "offer"
	StatusRejected        Status = "rejected"
	StatusWithdrawn       Status = "withdrawn"
	StatusFollowUpPending Status = "follow_up_pending"
)

// AllStatuses lists every valid status, in pipeline order.
var AllStatuses = []Status{
	StatusDiscovered,
	StatusAnalyzing,
	StatusReady,
	StatusApplied,
	StatusResponded,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
	StatusFollowUpPending,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusOffer || s == StatusRejected || s == StatusWithdrawn
}

// StatusChange is one entry in an application's append-only status history.
type StatusChange struct {
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
	Note       string    `json:"note,omitempty"`
}

// OperationKind identifies a retryable external operation for retry counting.
type OperationKind string

// Operation kinds tracked per application
const (
	OpAnalyze OperationKind = "analyze"
	OpTailor  OperationKind = "tailor"
	OpScore   OperationKind = "score"
	OpSubmit  OperationKind = "submit"
)

// ApplicationRecord tracks one application per job identity from discovery
// to resolution. The orchestrator exclusively creates and mutates it; the
// store only persists and retrieves it.
type ApplicationRecord struct {
	ID       uuid.UUID `json:"id"`
	Identity Identity  `json:"identity"`
	Company  string    `json:"company"`
	Role     string    `json:"role"`

	Status  Status         `json:"status"`
	History []StatusChange `json:"history"`

	ResumeVariant string   `json:"resume_variant,omitempty"`
	MatchScore    *float64 `json:"match_score,omitempty"`
	ATSScore      *float64 `json:"ats_score,omitempty"`

	RetryCounts map[OperationKind]int `json:"retry_counts,omitempty"`

	// Version is the optimistic concurrency stamp, incremented by the store
	// on every successful update.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplication creates an application record at the initial status for a
// stored job record.
func NewApplication(job JobRecord, now time.Time) *ApplicationRecord {
	return &ApplicationRecord{
		ID:       uuid.New(),
		Identity: job.Identity,
		Company:  job.Company,
		Role:     job.Title,
		Status:   StatusDiscovered,
		History: []StatusChange{
			{Status: StatusDiscovered, OccurredAt: now, Note: "discovered"},
		},
		RetryCounts: make(map[OperationKind]int),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IncrementRetry bumps the retry counter for an operation kind and returns
// the new count.
func (a *ApplicationRecord) IncrementRetry(kind OperationKind) int {
	if a.RetryCounts == nil {
		a.RetryCounts = make(map[OperationKind]int)
	}
	a.RetryCounts[kind]++
	return a.RetryCounts[kind]
}

// Clone returns a deep copy of the record. Stores hand out clones so callers
// never share mutable state with persisted records.
func (a *ApplicationRecord) Clone() *ApplicationRecord {
	cp := *a
	cp.History = make([]StatusChange, len(a.History))
	copy(cp.History, a.History)
	if a.RetryCounts != nil {
		cp.RetryCounts = make(map[OperationKind]int, len(a.RetryCounts))
		for k, v := range a.RetryCounts {
			cp.RetryCounts[k] = v
		}
	}
	if a.MatchScore != nil {
		v := *a.MatchScore
		cp.MatchScore = &v
	}
	if a.ATSScore != nil {
		v := *a.ATSScore
		cp.ATSScore = &v
	}
	return &cp
}
