package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// ATS score recommendation bands.
const (
	RecommendAutoApply   = "auto_apply"   // >= 85
	RecommendReady       = "ready"        // >= 80
	RecommendNeedsReview = "needs_review" // >= 70
	RecommendRegenerate  = "regenerate"   // below 70
)

// ATSScore is the detailed result of scoring a resume against a job
// description for automated-screening compatibility.
type ATSScore struct {
	TotalScore      float64 `json:"total_score"`
	KeywordScore    float64 `json:"keyword_score"`    // 40 max
	SectionScore    float64 `json:"section_score"`    // 20 max
	MetricsScore    float64 `json:"metrics_score"`    // 20 max
	FormattingScore float64 `json:"formatting_score"` // 20 max

	MatchedKeywords  []string `json:"matched_keywords"`
	MissingKeywords  []string `json:"missing_keywords"`
	SectionsFound    []string `json:"sections_found"`
	SectionsMissing  []string `json:"sections_missing"`
	MetricsFound     []string `json:"metrics_found"`
	FormattingIssues []string `json:"formatting_issues"`

	Recommendation string `json:"recommendation"`
}

var atsKeywords = []string{
	// Languages
	"python", "go", "golang", "rust", "c++", "cpp", "java", "scala",
	"typescript", "javascript", "sql", "bash",
	// ML/AI
	"machine learning", "deep learning", "neural network", "llm",
	"large language model", "nlp", "natural language processing",
	"computer vision", "reinforcement learning", "transformer",
	"pytorch", "tensorflow", "jax", "keras", "hugging face",
	"fine-tuning", "fine tuning", "lora", "qlora", "peft",
	"rag", "retrieval augmented", "prompt engineering",
	"agent", "multi-agent", "agentic",
	// Infrastructure
	"kubernetes", "k8s", "docker", "helm", "terraform",
	"aws", "gcp", "azure", "cloud", "ci/cd", "cicd",
	"github actions", "argocd", "jenkins", "mlops", "devops", "sre",
	// Data
	"postgresql", "postgres", "mysql", "mongodb", "redis",
	"elasticsearch", "kafka", "spark", "vector database",
	"pinecone", "weaviate", "qdrant", "chroma",
	// Concepts
	"distributed systems", "microservices", "api", "rest",
	"system design", "scalability", "performance", "observability",
	"monitoring", "prometheus", "grafana", "opentelemetry", "tracing",
}

// sectionGroups are the resume section families an ATS expects; any name in
// a group satisfies that group.
var sectionGroups = [][]string{
	{"experience", "work experience", "professional experience"},
	{"education", "academic background"},
	{"skills", "technical skills", "core competencies"},
	{"projects", "key projects", "selected projects"},
	{"summary", "professional summary", "profile", "objective"},
}

var metricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),                                          // percentages
	regexp.MustCompile(`\d+(?:\.\d+)?x`),                                // multipliers
	regexp.MustCompile(`\$[\d,]+(?:k|K|m|M)?`),                          // money
	regexp.MustCompile(`\d+\+?\s*(?:years?|yrs?)`),                      // years
	regexp.MustCompile(`<\d+\s*(?:ms|s|min|minutes?)`),                  // latency
	regexp.MustCompile(`\d+,?\d*\+?\s*(?:users?|customers?|requests?)`), // scale
	regexp.MustCompile(`\d+\s*(?:layers?|services?|providers?)`),        // counts
}

var capitalizedTerm = regexp.MustCompile(`\b[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*\b`)
var bulletMarkers = regexp.MustCompile(`(?m)(•|^\s*[-*]|^\s*\d+\.)`)
var wideWhitespace = regexp.MustCompile(`\s{3,}`)

// ATSScorer scores resumes against job descriptions, optionally augmented
// with role-specific keyword sets.
type ATSScorer struct {
	roleKeywords map[string][]string
}

// NewATSScorer creates a scorer with the built-in role keyword sets.
func NewATSScorer() *ATSScorer {
	return &ATSScorer{
		roleKeywords: map[string][]string{
			"ai_engineer":       {"multi-agent", "agentic", "llm orchestration", "langchain", "llamaindex", "prompt optimization"},
			"platform_engineer": {"platform engineering", "service mesh", "infrastructure as code", "observability", "sre"},
			"ml_engineer":       {"model deployment", "feature engineering", "model monitoring", "experiment tracking", "model serving"},
			"research_engineer": {"research", "publications", "experiments", "benchmarking", "ablation", "evaluation"},
		},
	}
}

// AddRoleKeywords merges extra keywords into a role's set.
func (s *ATSScorer) AddRoleKeywords(role string, keywords []string) {
	s.roleKeywords[role] = append(s.roleKeywords[role], keywords...)
}

// Score calculates the ATS compatibility score for resume text against a job
// description: 40% keyword match, 20% section presence, 20% quantifiable
// metrics, 20% formatting quality.
func (s *ATSScorer) Score(resumeText, jobDescription, roleType string) *ATSScore {
	resumeLower := strings.ToLower(resumeText)
	jdLower := strings.ToLower(jobDescription)

	result := &ATSScore{}
	s.scoreKeywords(result, resumeLower, jdLower, roleType)
	scoreSections(result, resumeLower)
	scoreMetrics(result, resumeText)
	scoreFormatting(result, resumeText)

	result.TotalScore = result.KeywordScore + result.SectionScore + result.MetricsScore + result.FormattingScore

	switch {
	case result.TotalScore >= 85:
		result.Recommendation = RecommendAutoApply
	case result.TotalScore >= 80:
		result.Recommendation = RecommendReady
	case result.TotalScore >= 70:
		result.Recommendation = RecommendNeedsReview
	default:
		result.Recommendation = RecommendRegenerate
	}

	return result
}

func (s *ATSScorer) scoreKeywords(result *ATSScore, resume, jd, roleType string) {
	jdKeywords := make(map[string]bool)
	for _, keyword := range atsKeywords {
		if strings.Contains(jd, keyword) {
			jdKeywords[keyword] = true
		}
	}
	for _, keyword := range s.roleKeywords[roleType] {
		if strings.Contains(jd, strings.ToLower(keyword)) {
			jdKeywords[strings.ToLower(keyword)] = true
		}
	}
	// Capitalized terms in the posting are likely product or tool names.
	for _, term := range capitalizedTerm.FindAllString(jd, -1) {
		if len(term) > 2 {
			jdKeywords[strings.ToLower(term)] = true
		}
	}

	if len(jdKeywords) == 0 {
		result.KeywordScore = 20 // partial score if no keywords detected
		return
	}

	for keyword := range jdKeywords {
		if strings.Contains(resume, keyword) {
			result.MatchedKeywords = append(result.MatchedKeywords, keyword)
		} else {
			result.MissingKeywords = append(result.MissingKeywords, keyword)
		}
	}
	sort.Strings(result.MatchedKeywords)
	sort.Strings(result.MissingKeywords)

	result.KeywordScore = float64(len(result.MatchedKeywords)) / float64(len(jdKeywords)) * 40
}

func scoreSections(result *ATSScore, resume string) {
	for _, group := range sectionGroups {
		found := false
		for _, name := range group {
			if strings.Contains(resume, name) {
				result.SectionsFound = append(result.SectionsFound, name)
				found = true
				break
			}
		}
		if !found {
			result.SectionsMissing = append(result.SectionsMissing, group[0])
		}
	}
	result.SectionScore = float64(len(result.SectionsFound)) / float64(len(sectionGroups)) * 20
}

func scoreMetrics(result *ATSScore, resume string) {
	seen := make(map[string]bool)
	for _, pattern := range metricPatterns {
		for _, m := range pattern.FindAllString(resume, -1) {
			seen[m] = true
		}
	}
	for m := range seen {
		result.MetricsFound = append(result.MetricsFound, m)
	}
	sort.Strings(result.MetricsFound)

	// 2 points per metric, max 20
	result.MetricsScore = float64(len(result.MetricsFound)) * 2
	if result.MetricsScore > 20 {
		result.MetricsScore = 20
	}
}

func scoreFormatting(result *ATSScore, resume string) {
	score := 20.0

	if len(strings.TrimSpace(resume)) < 500 {
		result.FormattingIssues = append(result.FormattingIssues, "resume text appears too short or not extractable")
		score -= 10
	}
	if strings.Contains(resume, "�") || strings.Contains(resume, `\x`) {
		result.FormattingIssues = append(result.FormattingIssues, "encoding issues detected")
		score -= 5
	}
	if !bulletMarkers.MatchString(resume) {
		result.FormattingIssues = append(result.FormattingIssues, "no bullet points detected")
		score -= 3
	}
	if len(resume) > 0 {
		ratio := float64(len(wideWhitespace.FindAllString(resume, -1))) / float64(len(resume))
		if ratio > 0.1 {
			result.FormattingIssues = append(result.FormattingIssues, "excessive whitespace (possible multi-column layout)")
			score -= 2
		}
	}

	if score < 0 {
		score = 0
	}
	result.FormattingScore = score
}
