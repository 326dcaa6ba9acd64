// Package identity derives deterministic deduplication keys from job fields
// and checks them against prior records.
package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/job-agent/internal/types"
)

// Compute derives the identity for a set of job fields. The normalized URL
// is preferred (it is the most reliable match); when no usable URL is
// present it falls back to the normalized company|role|location tuple.
// Identical input fields always yield the same identity regardless of
// formatting noise such as case, extra whitespace, query strings, or
// trailing slashes.
func Compute(raw types.RawJob) types.Identity {
	if id := normalizeURL(raw.URL); id != "" {
		return types.Identity(id)
	}
	return types.Identity(compositeKey(raw.Company, raw.Title, raw.Location))
}

// ComputeForJob derives the identity from a stored job record's fields.
func ComputeForJob(job types.JobRecord) types.Identity {
	return Compute(types.RawJob{
		URL:      job.URL,
		Title:    job.Title,
		Company:  job.Company,
		Location: job.Location,
	})
}

// normalizeURL reduces a URL to scheme://host/path with the query and
// fragment stripped, the host lowercased, and any trailing slash trimmed.
// Returns "" for unusable URLs so the caller falls back to the composite key.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.Path, "/")

	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

// compositeKey builds the fallback identity from company, role, and location.
func compositeKey(company, role, location string) string {
	return normalizeField(company) + "|" + normalizeField(role) + "|" + normalizeField(location)
}

// normalizeField lowercases and collapses runs of whitespace to single spaces.
func normalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Lookup is the subset of the record store the index needs.
type Lookup interface {
	GetJobByIdentity(ctx context.Context, id types.Identity) (*types.JobRecord, error)
	GetApplication(ctx context.Context, id types.Identity) (*types.ApplicationRecord, error)
}

// Index answers duplicate queries against the record store.
type Index struct {
	store Lookup
}

// NewIndex creates a deduplication index backed by the given store.
func NewIndex(store Lookup) *Index {
	return &Index{store: store}
}

// IsDuplicate reports whether a job record already exists for the identity.
func (ix *Index) IsDuplicate(ctx context.Context, id types.Identity) (bool, error) {
	job, err := ix.store.GetJobByIdentity(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	return job != nil, nil
}

// AppliedOrLater reports whether an application for the identity has already
// reached the applied status or beyond. Applications still ahead of
// submission (discovered, analyzing, ready) do not count.
func (ix *Index) AppliedOrLater(ctx context.Context, id types.Identity) (bool, error) {
	app, err := ix.store.GetApplication(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check application status: %w", err)
	}
	if app == nil {
		return false, nil
	}
	switch app.Status {
	case types.StatusDiscovered, types.StatusAnalyzing, types.StatusReady, types.StatusWithdrawn:
		return false, nil
	}
	return true, nil
}
