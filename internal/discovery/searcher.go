// Package discovery finds job postings across boards and enriches them with
// targeting policy before they enter the pipeline.
package discovery

import (
	"context"
	"fmt"

	"github.com/jonathan/job-agent/internal/types"
)

// Criteria is a discovery query. Adapters interpret the fields they support
// and ignore the rest.
type Criteria struct {
	Term          string
	Location      string
	Country       string
	Remote        bool
	ResultsWanted int
	HoursOld      int
	Companies     []string
}

// Searcher finds raw job postings. Results carry no ordering or uniqueness
// guarantee; duplicates are resolved downstream by identity derivation.
type Searcher interface {
	Search(ctx context.Context, criteria Criteria) ([]types.RawJob, error)
}

// Multi fans a query out to several searchers and concatenates the results.
// A failing searcher aborts the whole search.
type Multi []Searcher

// Search runs the query against each searcher in order.
func (m Multi) Search(ctx context.Context, criteria Criteria) ([]types.RawJob, error) {
	var all []types.RawJob
	for _, s := range m {
		jobs, err := s.Search(ctx, criteria)
		if err != nil {
			return nil, fmt.Errorf("failed to search: %w", err)
		}
		all = append(all, jobs...)
	}
	return all, nil
}

// Dedupe removes duplicate postings by URL and by the company|title|location
// combination, keeping the first occurrence.
func Dedupe(jobs []types.RawJob) []types.RawJob {
	seen := make(map[string]bool, len(jobs)*2)
	unique := make([]types.RawJob, 0, len(jobs))

	for _, job := range jobs {
		urlKey := job.URL
		comboKey := job.Company + "|" + job.Title + "|" + job.Location

		if urlKey != "" && seen[urlKey] {
			continue
		}
		if seen[comboKey] {
			continue
		}

		if urlKey != "" {
			seen[urlKey] = true
		}
		seen[comboKey] = true
		unique = append(unique, job)
	}

	return unique
}
