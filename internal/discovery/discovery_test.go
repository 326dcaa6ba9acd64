package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/types"
)

func TestDedupe(t *testing.T) {
	jobs := []types.RawJob{
		{URL: "https://boards.greenhouse.io/acme/jobs/1", Title: "Engineer", Company: "Acme", Location: "Remote"},
		{URL: "https://boards.greenhouse.io/acme/jobs/1", Title: "Engineer", Company: "Acme", Location: "Remote"},
		{Title: "Engineer", Company: "Acme", Location: "Remote"}, // same combo, no URL
		{URL: "https://boards.greenhouse.io/acme/jobs/2", Title: "Designer", Company: "Acme", Location: "Remote"},
	}

	unique := Dedupe(jobs)
	assert.Len(t, unique, 2)
	assert.Equal(t, "Engineer", unique[0].Title)
	assert.Equal(t, "Designer", unique[1].Title)
}

func TestDedupeKeepsDistinctLocations(t *testing.T) {
	jobs := []types.RawJob{
		{Title: "Engineer", Company: "Acme", Location: "Remote"},
		{Title: "Engineer", Company: "Acme", Location: "NYC"},
	}
	assert.Len(t, Dedupe(jobs), 2)
}

func testTargets() *config.Targets {
	return &config.Targets{
		Tiers: map[string]config.Tier{
			"tier1": {Companies: []config.TargetCompany{{Name: "Acme", Priority: 1}}},
			"tier3": {Companies: []config.TargetCompany{{Name: "Bigcorp", Priority: 3}}},
		},
		Exclusions: config.Exclusions{
			Companies: []string{"Badcorp"},
			Keywords:  []string{"staffing agency"},
		},
		TargetRoles: config.TargetRoles{
			Primary:   []string{"backend engineer"},
			Secondary: []string{"platform engineer"},
		},
		BadWords: config.BadWords{
			TitleWords:       []string{"manager"},
			DescriptionWords: []string{"clearance"},
			PenaltyPerMatch:  5.0,
		},
		ExperienceRange: config.ExperienceRange{MinYears: 2, MaxYears: 10},
	}
}

func TestApplyTargetsFilterExclusions(t *testing.T) {
	jobs := []types.RawJob{
		{Title: "Backend Engineer", Company: "Badcorp"},
		{Title: "Backend Engineer", Company: "Acme", Description: "we are a staffing agency"},
		{Title: "Backend Engineer", Company: "Acme"},
	}

	filtered := ApplyTargetsFilter(jobs, testTargets())
	assert.Len(t, filtered, 1)
	assert.Equal(t, "Acme", filtered[0].Company)
}

func TestApplyTargetsFilterEnrichment(t *testing.T) {
	jobs := []types.RawJob{
		{Title: "Backend Engineer", Company: "Acme", Description: "4 years of experience"},
	}

	filtered := ApplyTargetsFilter(jobs, testTargets())
	job := filtered[0]
	assert.Equal(t, "tier1", job.TargetTier)
	assert.Equal(t, 1, job.TargetPriority)
	assert.True(t, job.AutoApplyEligible)
	assert.Equal(t, "primary", job.RoleMatch)
	assert.Equal(t, "in_range", job.ExperienceMatch)
	assert.Equal(t, 0.0, job.BadWordPenalty)
}

func TestApplyTargetsFilterPenalties(t *testing.T) {
	jobs := []types.RawJob{
		{Title: "Engineering Manager", Company: "Unknown Co", Description: "requires clearance and 15+ years of experience"},
	}

	filtered := ApplyTargetsFilter(jobs, testTargets())
	job := filtered[0]
	assert.Equal(t, "unknown", job.TargetTier)
	assert.False(t, job.AutoApplyEligible)
	// "manager" in the title, "clearance" in the description, and the
	// 15-year ask above the range: three penalties.
	assert.Equal(t, 15.0, job.BadWordPenalty)
	assert.Equal(t, "over_qualified", job.ExperienceMatch)
	assert.Contains(t, job.BadWordsMatched, "title:manager")
}

func TestApplyTargetsFilterOrdering(t *testing.T) {
	jobs := []types.RawJob{
		{Title: "Data Engineer", Company: "Bigcorp"},
		{Title: "Backend Engineer", Company: "Acme"},
		{Title: "Platform Engineer", Company: "Unknown Co"},
	}

	filtered := ApplyTargetsFilter(jobs, testTargets())
	assert.Equal(t, "Acme", filtered[0].Company, "tier1 primary role sorts first")
	assert.Equal(t, "Unknown Co", filtered[1].Company, "secondary role beats tier3 other")
	assert.Equal(t, "Bigcorp", filtered[2].Company)
}

func TestMultiSearcher(t *testing.T) {
	first := searcherFunc(func(context.Context, Criteria) ([]types.RawJob, error) {
		return []types.RawJob{{Title: "A", Company: "X"}}, nil
	})
	second := searcherFunc(func(context.Context, Criteria) ([]types.RawJob, error) {
		return []types.RawJob{{Title: "B", Company: "Y"}}, nil
	})

	jobs, err := Multi{first, second}.Search(context.Background(), Criteria{})
	assert.NoError(t, err)
	assert.Len(t, jobs, 2)
}

type searcherFunc func(ctx context.Context, criteria Criteria) ([]types.RawJob, error)

func (f searcherFunc) Search(ctx context.Context, criteria Criteria) ([]types.RawJob, error) {
	return f(ctx, criteria)
}
