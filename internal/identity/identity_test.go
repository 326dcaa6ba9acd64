package identity

import (
	"testing"

	"github.com/jonathan/job-agent/internal/types"
)

func TestCompute_URLNormalization(t *testing.T) {
	base := Compute(types.RawJob{URL: "https://boards.greenhouse.io/acme/jobs/123"})

	variants := []string{
		"https://boards.greenhouse.io/acme/jobs/123?utm=x",
		"https://boards.greenhouse.io/acme/jobs/123?gh_src=abc&utm_source=linkedin",
		"https://boards.greenhouse.io/acme/jobs/123/",
		"https://BOARDS.GREENHOUSE.IO/acme/jobs/123",
		"  https://boards.greenhouse.io/acme/jobs/123  ",
		"https://boards.greenhouse.io/acme/jobs/123#apply",
	}

	for _, v := range variants {
		got := Compute(types.RawJob{URL: v})
		if got != base {
			t.Errorf("Compute(%q) = %q, want %q", v, got, base)
		}
	}
}

func TestCompute_URLPreferredOverComposite(t *testing.T) {
	withURL := Compute(types.RawJob{
		URL:     "https://boards.greenhouse.io/acme/jobs/123",
		Company: "Acme",
		Title:   "AI Engineer",
	})
	urlOnly := Compute(types.RawJob{URL: "https://boards.greenhouse.io/acme/jobs/123"})
	if withURL != urlOnly {
		t.Errorf("URL identity changed by composite fields: %q vs %q", withURL, urlOnly)
	}
}

func TestCompute_CompositeFallback(t *testing.T) {
	base := Compute(types.RawJob{Company: "Acme", Title: "AI Engineer", Location: "Remote"})

	variants := []types.RawJob{
		{Company: "acme", Title: "ai engineer", Location: "remote"},
		{Company: "  Acme ", Title: "AI  Engineer", Location: " Remote "},
		{Company: "ACME", Title: "AI\tEngineer", Location: "REMOTE"},
	}
	for _, v := range variants {
		if got := Compute(v); got != base {
			t.Errorf("Compute(%+v) = %q, want %q", v, got, base)
		}
	}

	if base != types.Identity("acme|ai engineer|remote") {
		t.Errorf("composite identity = %q", base)
	}
}

func TestCompute_MalformedURLFallsBack(t *testing.T) {
	got := Compute(types.RawJob{URL: "not a url", Company: "Acme", Title: "Engineer"})
	want := types.Identity("acme|engineer|")
	if got != want {
		t.Errorf("Compute() = %q, want composite fallback %q", got, want)
	}
}

func TestCompute_DistinctJobsDistinctIdentities(t *testing.T) {
	a := Compute(types.RawJob{URL: "https://boards.greenhouse.io/acme/jobs/123"})
	b := Compute(types.RawJob{URL: "https://boards.greenhouse.io/acme/jobs/456"})
	if a == b {
		t.Error("different job URLs produced the same identity")
	}

	c := Compute(types.RawJob{Company: "Acme", Title: "AI Engineer", Location: "NYC"})
	d := Compute(types.RawJob{Company: "Acme", Title: "AI Engineer", Location: "SF"})
	if c == d {
		t.Error("different locations produced the same composite identity")
	}
}
