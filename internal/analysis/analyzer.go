// Package analysis extracts requirements and keywords from job descriptions
// and scores them against the operator's profile, plus ATS compatibility
// scoring for generated resumes.
package analysis

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/job-agent/internal/types"
)

// Requirement is a single extracted requirement line from a job description.
type Requirement struct {
	Text        string `json:"text"`
	Category    string `json:"category"` // must_have, nice_to_have
	Matched     bool   `json:"matched"`
	MatchSource string `json:"match_source,omitempty"`
}

// Analysis is the structured result of analyzing one job description.
type Analysis struct {
	Company string `json:"company"`
	Role    string `json:"role"`

	MustHave   []Requirement `json:"must_have"`
	NiceToHave []Requirement `json:"nice_to_have"`

	Keywords []string `json:"keywords"`

	MatchScore    float64  `json:"match_score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`

	RemotePolicy    string `json:"remote_policy"`
	ExperienceYears *int   `json:"required_experience_years,omitempty"`

	BadWordsMatched []string `json:"bad_words_matched,omitempty"`

	TailoringNotes []string `json:"tailoring_notes,omitempty"`
}

var mustHaveIndicators = []string{
	"required", "must have", "minimum", "essential", "mandatory", "necessary", "need to have",
}

var niceToHaveIndicators = []string{
	"preferred", "nice to have", "bonus", "plus", "ideally", "desirable", "advantageous",
}

var techSkills = []string{
	// Languages
	"python", "go", "rust", "c++", "typescript", "java", "scala",
	// ML/AI
	"pytorch", "tensorflow", "jax", "transformers", "llm", "nlp",
	"machine learning", "deep learning", "reinforcement learning",
	"rag", "fine-tuning", "prompt engineering", "langchain",
	// Infrastructure
	"kubernetes", "docker", "helm", "terraform", "aws", "gcp", "azure",
	"ci/cd", "mlops", "devops", "kafka", "redis",
	// Databases
	"postgresql", "mongodb", "elasticsearch", "vector database",
	"pinecone", "weaviate", "qdrant",
	// Concepts
	"distributed systems", "microservices", "api design", "system design",
	"data pipelines", "etl",
}

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\+?\s*(?:years?|yrs?)\s*(?:of\s*)?(?:experience|exp)`),
	regexp.MustCompile(`(?:experience|exp)\s*(?:of\s*)?(\d+)\+?\s*(?:years?|yrs?)`),
}

var bulletPrefix = regexp.MustCompile(`^[-*•\d.]+\s*`)
var lineSplit = regexp.MustCompile(`[•\n\r]+`)
var numberedItem = regexp.MustCompile(`^\d+\.`)

// Analyzer scores job descriptions against the operator's skills. The bad
// word penalty is policy configuration: each matched bad word subtracts the
// penalty from the match score.
type Analyzer struct {
	skills         []string
	badWords       []string
	badWordPenalty float64
}

// NewAnalyzer creates an analyzer for the given skills and bad-word policy.
func NewAnalyzer(skills, badWords []string, badWordPenalty float64) *Analyzer {
	return &Analyzer{skills: skills, badWords: badWords, badWordPenalty: badWordPenalty}
}

// Analyze extracts requirements and keywords from the job description and
// computes the match score.
func (a *Analyzer) Analyze(_ context.Context, job types.JobRecord) (*Analysis, error) {
	description := strings.ToLower(job.Description)

	mustHave := extractRequirements(description, "must_have")
	niceToHave := extractRequirements(description, "nice_to_have")
	keywords := extractKeywords(description)

	matched, missing := a.matchSkills(keywords)
	a.markRequirements(mustHave)
	a.markRequirements(niceToHave)

	badWordsMatched := matchBadWords(description, a.badWords)

	score := matchScore(mustHave, niceToHave, matched)
	score -= float64(len(badWordsMatched)) * a.badWordPenalty
	if score < 0 {
		score = 0
	}

	return &Analysis{
		Company:         job.Company,
		Role:            job.Title,
		MustHave:        mustHave,
		NiceToHave:      niceToHave,
		Keywords:        keywords,
		MatchScore:      score,
		MatchedSkills:   matched,
		MissingSkills:   missing,
		RemotePolicy:    extractRemotePolicy(description),
		ExperienceYears: ExtractExperienceYears(description),
		BadWordsMatched: badWordsMatched,
		TailoringNotes:  tailoringNotes(mustHave, niceToHave, matched, missing),
	}, nil
}

// matchScore combines requirement and keyword matching into a 0-100 score:
// must-have requirements 60%, nice-to-have 20%, keyword matches 20%.
func matchScore(mustHave, niceToHave []Requirement, matchedSkills []string) float64 {
	var mustHaveScore float64 = 60 // no explicit must-haves = full score
	if len(mustHave) > 0 {
		mustHaveScore = ratioMatched(mustHave) * 60
	}

	var niceToHaveScore float64 = 10 // partial score if not specified
	if len(niceToHave) > 0 {
		niceToHaveScore = ratioMatched(niceToHave) * 20
	}

	// 2 points per keyword match, max 20
	keywordScore := float64(len(matchedSkills)) * 2
	if keywordScore > 20 {
		keywordScore = 20
	}

	return mustHaveScore + niceToHaveScore + keywordScore
}

func ratioMatched(reqs []Requirement) float64 {
	matched := 0
	for _, r := range reqs {
		if r.Matched {
			matched++
		}
	}
	return float64(matched) / float64(len(reqs))
}

// extractRequirements pulls bulleted requirement lines from the description.
// A line only counts once a section indicator for the category has appeared.
func extractRequirements(text, category string) []Requirement {
	indicators := mustHaveIndicators
	if category == "nice_to_have" {
		indicators = niceToHaveIndicators
	}

	var requirements []Requirement
	inSection := false

	for _, line := range lineSplit.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for _, ind := range indicators {
			if strings.Contains(line, ind) {
				inSection = true
				break
			}
		}

		if inSection && (strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || numberedItem.MatchString(line)) {
			clean := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
			if len(clean) > 10 { // filter out short fragments
				requirements = append(requirements, Requirement{Text: clean, Category: category})
			}
		}
	}

	return requirements
}

// extractKeywords finds known technical terms and experience mentions.
func extractKeywords(text string) []string {
	seen := make(map[string]bool)
	for _, skill := range techSkills {
		if strings.Contains(text, skill) {
			seen[skill] = true
		}
	}
	for _, pattern := range experiencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			seen[m[1]+"+ years experience"] = true
		}
	}

	keywords := make([]string, 0, len(seen))
	for k := range seen {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// ExtractExperienceYears returns the smallest years-of-experience figure the
// description asks for, or nil when none is stated.
func ExtractExperienceYears(text string) *int {
	text = strings.ToLower(text)
	var years *int
	for _, pattern := range experiencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if years == nil || n < *years {
				years = &n
			}
		}
	}
	return years
}

func extractRemotePolicy(text string) string {
	switch {
	case strings.Contains(text, "fully remote") || strings.Contains(text, "100% remote"):
		return "fully_remote"
	case strings.Contains(text, "hybrid"):
		return "hybrid"
	case strings.Contains(text, "remote"):
		return "remote_friendly"
	case strings.Contains(text, "on-site") || strings.Contains(text, "onsite") || strings.Contains(text, "in-office"):
		return "onsite"
	}
	return "unknown"
}

func (a *Analyzer) markRequirements(reqs []Requirement) {
	for i := range reqs {
		for _, skill := range a.skills {
			skill = strings.ToLower(skill)
			if skill != "" && strings.Contains(strings.ToLower(reqs[i].Text), skill) {
				reqs[i].Matched = true
				reqs[i].MatchSource = skill
				break
			}
		}
	}
}

func (a *Analyzer) matchSkills(keywords []string) (matched, missing []string) {
	skills := make([]string, len(a.skills))
	for i, s := range a.skills {
		skills[i] = strings.ToLower(s)
	}

	for _, keyword := range keywords {
		found := false
		for _, skill := range skills {
			if strings.Contains(skill, keyword) || strings.Contains(keyword, skill) {
				found = true
				break
			}
		}
		if found {
			matched = append(matched, keyword)
		} else {
			missing = append(missing, keyword)
		}
	}
	return matched, missing
}

func matchBadWords(text string, badWords []string) []string {
	var matched []string
	for _, w := range badWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(text, w) {
			matched = append(matched, w)
		}
	}
	return matched
}

func tailoringNotes(mustHave, niceToHave []Requirement, matched, missing []string) []string {
	var notes []string

	var unmatchedMust []string
	for _, r := range mustHave {
		if !r.Matched {
			unmatchedMust = append(unmatchedMust, r.Text)
		}
	}
	if len(unmatchedMust) > 0 {
		notes = append(notes, "ADDRESS these must-have gaps: "+strings.Join(truncate(unmatchedMust, 3), ", "))
	}

	var matchedNice []string
	for _, r := range niceToHave {
		if r.Matched {
			matchedNice = append(matchedNice, r.Text)
		}
	}
	if len(matchedNice) > 0 {
		notes = append(notes, "HIGHLIGHT these bonus qualifications: "+strings.Join(truncate(matchedNice, 3), ", "))
	}

	if len(matched) > 0 {
		notes = append(notes, "INCLUDE these keywords prominently: "+strings.Join(truncate(matched, 5), ", "))
	}
	if len(missing) > 0 {
		notes = append(notes, "Consider addressing: "+strings.Join(truncate(missing, 3), ", "))
	}

	return notes
}

func truncate(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
