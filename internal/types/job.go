// Package types provides type definitions for structured data used throughout the job-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"
)

// Platform constants for job boards
const (
	PlatformGreenhouse = "greenhouse"
	PlatformLever      = "lever"
	PlatformLinkedIn   = "linkedin"
	PlatformWorkday    = "workday"
	PlatformAshby      = "ashby"
	PlatformDirect     = "direct"
	PlatformUnknown    = "unknown"
)

// Identity is the deterministic deduplication key derived from job fields.
// It is either a normalized URL or a normalized company|role|location tuple.
type Identity string

// RawJob holds the unprocessed fields returned by a discovery adapter.
// Discovery adapters make no uniqueness or ordering guarantees; duplicates
// are resolved by identity derivation before storage.
type RawJob struct {
	URL         string     `json:"url,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	Remote      bool       `json:"remote,omitempty"`
	Salary      string     `json:"salary,omitempty"`
	Description string     `json:"description,omitempty"`
	Site        string     `json:"site,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`

	// Enrichment added by the targets filter
	TargetTier        string   `json:"target_tier,omitempty"`
	TargetPriority    int      `json:"target_priority,omitempty"`
	AutoApplyEligible bool     `json:"auto_apply_eligible,omitempty"`
	RoleMatch         string   `json:"role_match,omitempty"`
	BadWordPenalty    float64  `json:"bad_word_penalty,omitempty"`
	BadWordsMatched   []string `json:"bad_words_matched,omitempty"`
	ExperienceYears   *int     `json:"required_experience_years,omitempty"`
	ExperienceMatch   string   `json:"experience_match,omitempty"`
}

// Record converts a raw posting into its durable record form. The identity
// is left empty; callers derive it before storage.
func (r RawJob) Record(discoveredAt time.Time) JobRecord {
	return JobRecord{
		URL:          r.URL,
		Title:        r.Title,
		Company:      r.Company,
		Location:     r.Location,
		Remote:       r.Remote,
		Platform:     r.Site,
		Description:  r.Description,
		PostedAt:     r.PostedAt,
		DiscoveredAt: discoveredAt,
	}
}

// JobRecord is the durable, immutable record of a discovered job posting.
// Re-discovery of the same identity must not create a second record.
type JobRecord struct {
	Identity     Identity   `json:"identity"`
	URL          string     `json:"url,omitempty"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Location     string     `json:"location,omitempty"`
	Remote       bool       `json:"remote"`
	Platform     string     `json:"platform,omitempty"`
	Description  string     `json:"description,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	DiscoveredAt time.Time  `json:"discovered_at"`
}
