package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TargetCompany is one company inside a tier.
type TargetCompany struct {
	Name       string `yaml:"name"`
	Priority   int    `yaml:"priority,omitempty"`
	CareersURL string `yaml:"careers_url,omitempty"`
}

// Tier groups companies by how aggressively they are pursued.
type Tier struct {
	Companies []TargetCompany `yaml:"companies"`
}

// Exclusions are hard filters: matching jobs are dropped outright.
type Exclusions struct {
	Companies []string `yaml:"companies,omitempty"`
	Keywords  []string `yaml:"keywords,omitempty"`
}

// TargetRoles lists titles that raise a job's priority.
type TargetRoles struct {
	Primary   []string `yaml:"primary,omitempty"`
	Secondary []string `yaml:"secondary,omitempty"`
}

// BadWords are soft filters: each match subtracts a penalty from the job's
// standing rather than dropping it.
type BadWords struct {
	TitleWords       []string `yaml:"title_words,omitempty"`
	DescriptionWords []string `yaml:"description_words,omitempty"`
	PenaltyPerMatch  float64  `yaml:"penalty_per_match,omitempty"`
}

// ExperienceRange bounds the years of experience a posting may ask for
// before it is penalized.
type ExperienceRange struct {
	MinYears int `yaml:"min_years,omitempty"`
	MaxYears int `yaml:"max_years,omitempty"`
}

// SearchParams are the discovery query defaults.
type SearchParams struct {
	Locations []string `yaml:"locations,omitempty"`
	Salary    string   `yaml:"salary,omitempty"`
	Country   string   `yaml:"country,omitempty"`
}

// Targets is the full targeting configuration. A locale section holds
// overrides merged on load; callers never see the locales key.
type Targets struct {
	Tiers           map[string]Tier    `yaml:"tiers,omitempty"`
	Exclusions      Exclusions         `yaml:"exclusions,omitempty"`
	TargetRoles     TargetRoles        `yaml:"target_roles,omitempty"`
	BadWords        BadWords           `yaml:"bad_words,omitempty"`
	ExperienceRange ExperienceRange    `yaml:"experience_range,omitempty"`
	SearchParams    SearchParams       `yaml:"search_params,omitempty"`
	Locales         map[string]Targets `yaml:"locales,omitempty"`
}

// LoadTargets reads the targets YAML. When locale is non-empty, the matching
// locales section is merged into the base config: tiers and bad words
// extend, while locations, salary, and country are replaced.
func LoadTargets(path, locale string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", path, err)
	}

	var targets Targets
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets YAML: %w", err)
	}

	locales := targets.Locales
	targets.Locales = nil

	if locale == "" {
		return &targets, nil
	}

	overrides, ok := locales[locale]
	if !ok {
		names := make([]string, 0, len(locales))
		for name := range locales {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown locale %q, available locales: %s", locale, strings.Join(names, ", "))
	}

	targets.mergeLocale(overrides)
	return &targets, nil
}

// mergeLocale folds a locale's overrides into the base config.
func (t *Targets) mergeLocale(overrides Targets) {
	// tiers: extend
	for name, tier := range overrides.Tiers {
		if t.Tiers == nil {
			t.Tiers = make(map[string]Tier)
		}
		base := t.Tiers[name]
		base.Companies = append(base.Companies, tier.Companies...)
		t.Tiers[name] = base
	}

	// bad words: extend, deduplicated, base order preserved
	if len(overrides.BadWords.TitleWords) > 0 {
		t.BadWords.TitleWords = appendUnique(t.BadWords.TitleWords, overrides.BadWords.TitleWords)
	}
	if len(overrides.BadWords.DescriptionWords) > 0 {
		t.BadWords.DescriptionWords = appendUnique(t.BadWords.DescriptionWords, overrides.BadWords.DescriptionWords)
	}

	// search params: locale value wins
	if len(overrides.SearchParams.Locations) > 0 {
		t.SearchParams.Locations = overrides.SearchParams.Locations
	}
	if overrides.SearchParams.Salary != "" {
		t.SearchParams.Salary = overrides.SearchParams.Salary
	}
	if overrides.SearchParams.Country != "" {
		t.SearchParams.Country = overrides.SearchParams.Country
	}
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, w := range base {
		seen[w] = true
	}
	for _, w := range extra {
		if !seen[w] {
			base = append(base, w)
			seen[w] = true
		}
	}
	return base
}

// ExcludedCompanies returns the exclusion company list, trimmed.
func (t *Targets) ExcludedCompanies() []string {
	return trimAll(t.Exclusions.Companies)
}

// AutoApplyCompanies returns companies from tier1 and tier2, which are
// eligible for unattended submission.
func (t *Targets) AutoApplyCompanies() []string {
	var companies []string
	for _, tier := range []string{"tier1", "tier2"} {
		for _, c := range t.Tiers[tier].Companies {
			companies = append(companies, c.Name)
		}
	}
	return companies
}

// PenaltyPerMatch returns the configured bad-word penalty, defaulting to 5.
func (t *Targets) PenaltyPerMatch() float64 {
	if t.BadWords.PenaltyPerMatch > 0 {
		return t.BadWords.PenaltyPerMatch
	}
	return 5.0
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
