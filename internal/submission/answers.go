package submission

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	_ "embed"

	"github.com/jonathan/job-agent/internal/schemas"
)

//go:embed answers.schema.json
var answersSchema string

// questionPatterns maps standard answer keys to the question phrasings that
// select them. Order matters: keys are tried top to bottom and the first
// matching pattern wins.
var questionPatterns = []struct {
	key      string
	patterns []*regexp.Regexp
}{
	{"work_authorization", compileAll(
		`(?:are you|do you have).*(?:authorized|legally|permitted).*(?:work|employment)`,
		`work\s*(?:authorization|authorisation|permit)`,
		`(?:legally|authorized)\s*(?:to\s*)?work`,
		`right\s*to\s*work`,
		`eligible\s*to\s*work`,
	)},
	{"visa_sponsorship", compileAll(
		`(?:require|need).*(?:visa|sponsorship)`,
		`visa\s*(?:sponsorship|support|status)`,
		`(?:immigration|work)\s*(?:sponsorship|visa)`,
		`sponsor.*(?:visa|work\s*permit)`,
	)},
	{"years_of_experience", compileAll(
		`(?:how\s*many|number\s*of)?\s*years?\s*(?:of\s*)?(?:\w+\s+)?(?:experience|exp)`,
		`total\s*(?:years?|yrs?)\s*(?:of\s*)?(?:\w+\s+)?(?:experience|exp)`,
		`(?:professional|relevant|work)\s*experience\s*(?:in\s*)?(?:years?|yrs?)`,
	)},
	{"education_level", compileAll(
		`(?:highest|education)\s*(?:level|degree|qualification)`,
		`(?:degree|education)\s*(?:obtained|completed|level)`,
		`what\s*(?:is\s*)?(?:your\s*)?(?:highest\s*)?(?:degree|education)`,
	)},
	{"salary_expectation", compileAll(
		`(?:salary|compensation|pay)\s*(?:expectation|requirement|range|desired)`,
		`(?:expected|desired|minimum)\s*(?:salary|compensation|pay)`,
		`(?:what|how\s*much).*(?:salary|compensation|pay)`,
	)},
	{"start_date", compileAll(
		`(?:when|how\s*soon).*(?:start|available|begin|join)`,
		`(?:start|availability|available)\s*(?:date|when)`,
		`(?:earliest|soonest)\s*(?:start|join|available)`,
		`notice\s*period`,
	)},
	{"willing_to_relocate", compileAll(
		`(?:willing|open|able)\s*(?:to\s*)?relocat`,
		`relocation`,
		`(?:willing|open)\s*(?:to\s*)?move`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// StandardQuestions returns the common application form questions worth
// pre-resolving before a submission attempt.
func StandardQuestions() []Question {
	return []Question{
		{Text: "Are you authorized to work in this country?", FieldType: "radio"},
		{Text: "Do you require visa sponsorship?", FieldType: "radio"},
		{Text: "How many years of experience do you have?", FieldType: "text"},
		{Text: "What is your highest level of education?", FieldType: "dropdown"},
		{Text: "What is your expected salary?", FieldType: "text"},
		{Text: "When can you start?", FieldType: "text"},
		{Text: "Are you willing to relocate?", FieldType: "radio"},
	}
}

// ResolvedAnswer is an answer matched to one application form question.
type ResolvedAnswer struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
	Source     string  `json:"source"`     // e.g. "application_answers.work_authorization", "custom_answers"
	FieldType  string  `json:"field_type"` // text, dropdown, radio, checkbox
}

// Question is one form question to resolve, with dropdown/radio options when present.
type Question struct {
	Text      string   `json:"question"`
	FieldType string   `json:"field_type"`
	Options   []string `json:"options,omitempty"`
}

// AnswerResolver maps application form questions to configured answers.
// Custom answers are matched by substring first; standard questions are
// matched against known phrasing patterns.
type AnswerResolver struct {
	answers map[string]string
	custom  map[string]string
}

// NewAnswerResolver builds a resolver from already-loaded answer maps.
func NewAnswerResolver(answers, custom map[string]string) *AnswerResolver {
	if answers == nil {
		answers = map[string]string{}
	}
	if custom == nil {
		custom = map[string]string{}
	}
	return &AnswerResolver{answers: answers, custom: custom}
}

// LoadAnswers reads an answers config file, validates it against the
// embedded JSON Schema, and builds a resolver. Empty values are dropped.
func LoadAnswers(path string) (*AnswerResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers config: %w", err)
	}

	if err := schemas.ValidateJSONString(answersSchema, string(data)); err != nil {
		return nil, fmt.Errorf("invalid answers config %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse answers config: %w", err)
	}

	answers := map[string]string{}
	custom := map[string]string{}
	for key, value := range raw {
		if key == "custom_answers" {
			entries, ok := value.(map[string]any)
			if !ok {
				continue
			}
			for question, answer := range entries {
				if s, ok := answer.(string); ok && s != "" {
					custom[question] = s
				}
			}
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			answers[key] = s
		}
	}

	return &AnswerResolver{answers: answers, custom: custom}, nil
}

// SetCustomAnswer adds or overrides a free-form question/answer pair.
func (r *AnswerResolver) SetCustomAnswer(question, answer string) {
	r.custom[question] = answer
}

// Resolve matches a single question to a configured answer. Custom answers
// take priority over pattern matches. Returns nil when no answer applies.
func (r *AnswerResolver) Resolve(question Question) *ResolvedAnswer {
	if question.Text == "" {
		return nil
	}

	questionLower := strings.ToLower(strings.TrimSpace(question.Text))

	for customQ, customA := range r.custom {
		customLower := strings.ToLower(customQ)
		if strings.Contains(questionLower, customLower) || strings.Contains(customLower, questionLower) {
			return &ResolvedAnswer{
				Question:   question.Text,
				Answer:     fitToOptions(customA, question.Options),
				Confidence: 0.95,
				Source:     "custom_answers",
				FieldType:  question.FieldType,
			}
		}
	}

	for _, entry := range questionPatterns {
		for _, pattern := range entry.patterns {
			if pattern.MatchString(questionLower) {
				answer, ok := r.answers[entry.key]
				if ok {
					return &ResolvedAnswer{
						Question:   question.Text,
						Answer:     fitToOptions(answer, question.Options),
						Confidence: 0.85,
						Source:     "application_answers." + entry.key,
						FieldType:  question.FieldType,
					}
				}
				break // pattern matched but no answer configured
			}
		}
	}

	return nil
}

// ResolveAll batch-resolves questions, skipping those with no answer.
func (r *AnswerResolver) ResolveAll(questions []Question) []ResolvedAnswer {
	results := make([]ResolvedAnswer, 0, len(questions))
	for _, q := range questions {
		if resolved := r.Resolve(q); resolved != nil {
			results = append(results, *resolved)
		}
	}
	return results
}

// fitToOptions picks the best matching dropdown/radio option for an answer:
// exact match, then substring either way, then yes/no normalization. Falls
// back to the original answer when nothing matches.
func fitToOptions(answer string, options []string) string {
	if len(options) == 0 {
		return answer
	}

	answerLower := strings.ToLower(strings.TrimSpace(answer))

	for _, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == answerLower {
			return opt
		}
	}

	for _, opt := range options {
		optLower := strings.ToLower(strings.TrimSpace(opt))
		if strings.Contains(optLower, answerLower) || strings.Contains(answerLower, optLower) {
			return opt
		}
	}

	switch answerLower {
	case "yes", "true", "1":
		for _, opt := range options {
			switch strings.ToLower(strings.TrimSpace(opt)) {
			case "yes", "true", "1":
				return opt
			}
		}
	case "no", "false", "0":
		for _, opt := range options {
			switch strings.ToLower(strings.TrimSpace(opt)) {
			case "no", "false", "0":
				return opt
			}
		}
	}

	return answer
}
