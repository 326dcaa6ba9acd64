package discovery

import (
	"sort"
	"strings"

	"github.com/jonathan/job-agent/internal/analysis"
	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/types"
)

// tierInfo is the targeting metadata attached to a company.
type tierInfo struct {
	tier      string
	priority  int
	autoApply bool
}

// ApplyTargetsFilter applies the targets configuration to a job list:
// exclusions drop jobs outright, tiers and role matches set priority, bad
// words and out-of-range experience asks accumulate a soft penalty. The
// result is sorted best-first (lowest priority number, then lowest penalty).
func ApplyTargetsFilter(jobs []types.RawJob, targets *config.Targets) []types.RawJob {
	if targets == nil {
		return jobs
	}

	companyTiers := make(map[string]tierInfo)
	for _, tierName := range []string{"tier1", "tier2", "tier3"} {
		for _, company := range targets.Tiers[tierName].Companies {
			priority := company.Priority
			if priority == 0 {
				priority = 3
			}
			companyTiers[strings.ToLower(company.Name)] = tierInfo{
				tier:      tierName,
				priority:  priority,
				autoApply: tierName == "tier1" || tierName == "tier2",
			}
		}
	}

	excludedCompanies := lowerAll(targets.Exclusions.Companies)
	excludedKeywords := lowerAll(targets.Exclusions.Keywords)
	primaryRoles := lowerAll(targets.TargetRoles.Primary)
	secondaryRoles := lowerAll(targets.TargetRoles.Secondary)
	badTitleWords := lowerAll(targets.BadWords.TitleWords)
	badDescWords := lowerAll(targets.BadWords.DescriptionWords)
	penalty := targets.PenaltyPerMatch()

	expMin := targets.ExperienceRange.MinYears
	expMax := targets.ExperienceRange.MaxYears
	if expMax == 0 {
		expMax = 50
	}

	enriched := make([]types.RawJob, 0, len(jobs))
	for _, job := range jobs {
		company := strings.ToLower(job.Company)
		title := strings.ToLower(job.Title)
		description := strings.ToLower(job.Description)

		// Hard filters
		if contains(excludedCompanies, company) {
			continue
		}
		if matchesAny(title, excludedKeywords) || matchesAny(description, excludedKeywords) {
			continue
		}

		info, ok := companyTiers[company]
		if !ok {
			info = tierInfo{tier: "unknown", priority: 4}
		}
		job.TargetTier = info.tier
		job.TargetPriority = info.priority
		job.AutoApplyEligible = info.autoApply

		switch {
		case matchesAny(title, primaryRoles):
			job.RoleMatch = "primary"
			if job.TargetPriority > 1 {
				job.TargetPriority = 1
			}
		case matchesAny(title, secondaryRoles):
			job.RoleMatch = "secondary"
			if job.TargetPriority > 2 {
				job.TargetPriority = 2
			}
		default:
			job.RoleMatch = "other"
		}

		// Soft penalties
		job.BadWordPenalty = 0
		job.BadWordsMatched = nil
		for _, word := range badTitleWords {
			if strings.Contains(title, word) {
				job.BadWordPenalty += penalty
				job.BadWordsMatched = append(job.BadWordsMatched, "title:"+word)
			}
		}
		for _, word := range badDescWords {
			if strings.Contains(description, word) {
				job.BadWordPenalty += penalty
				job.BadWordsMatched = append(job.BadWordsMatched, "desc:"+word)
			}
		}

		years := analysis.ExtractExperienceYears(description)
		if years == nil {
			years = analysis.ExtractExperienceYears(title)
		}
		if years != nil {
			job.ExperienceYears = years
			switch {
			case *years >= expMin && *years <= expMax:
				job.ExperienceMatch = "in_range"
			case *years < expMin:
				job.ExperienceMatch = "under_qualified"
				job.BadWordPenalty += penalty
			default:
				job.ExperienceMatch = "over_qualified"
				job.BadWordPenalty += penalty
			}
		} else {
			job.ExperienceMatch = "unknown"
		}

		enriched = append(enriched, job)
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		if enriched[i].TargetPriority != enriched[j].TargetPriority {
			return enriched[i].TargetPriority < enriched[j].TargetPriority
		}
		if enriched[i].BadWordPenalty != enriched[j].BadWordPenalty {
			return enriched[i].BadWordPenalty < enriched[j].BadWordPenalty
		}
		return enriched[i].TargetTier < enriched[j].TargetTier
	})

	return enriched
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

func matchesAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}
