package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *AnswerResolver {
	return NewAnswerResolver(
		map[string]string{
			"work_authorization":  "Yes",
			"visa_sponsorship":    "No",
			"years_of_experience": "5",
			"education_level":     "Bachelor's Degree",
			"salary_expectation":  "150000",
			"start_date":          "Immediately",
			"willing_to_relocate": "Yes",
		},
		map[string]string{
			"How did you hear about us?":            "LinkedIn",
			"Are you comfortable working remotely?": "Yes",
		},
	)
}

func TestResolve_PatternMatching(t *testing.T) {
	resolver := testResolver()

	tests := []struct {
		question string
		answer   string
		source   string
	}{
		{"Are you authorized to work in the US?", "Yes", "application_answers.work_authorization"},
		{"Do you have the legal right to work in this country?", "Yes", "application_answers.work_authorization"},
		{"Do you require visa sponsorship?", "No", "application_answers.visa_sponsorship"},
		{"Will you need immigration sponsorship now or in the future?", "No", "application_answers.visa_sponsorship"},
		{"How many years of experience do you have?", "5", "application_answers.years_of_experience"},
		{"Total years of relevant experience in this field?", "5", "application_answers.years_of_experience"},
		{"What is your highest degree?", "Bachelor's Degree", "application_answers.education_level"},
		{"What is your desired salary?", "150000", "application_answers.salary_expectation"},
		{"When can you start?", "Immediately", "application_answers.start_date"},
		{"What is your notice period?", "Immediately", "application_answers.start_date"},
		{"Are you willing to relocate?", "Yes", "application_answers.willing_to_relocate"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			result := resolver.Resolve(Question{Text: tt.question})
			require.NotNil(t, result)
			assert.Equal(t, tt.answer, result.Answer)
			assert.Equal(t, tt.source, result.Source)
			assert.Equal(t, 0.85, result.Confidence)
		})
	}
}

func TestResolve_NoMatch(t *testing.T) {
	resolver := testResolver()

	assert.Nil(t, resolver.Resolve(Question{Text: "What is your favorite color?"}))
	assert.Nil(t, resolver.Resolve(Question{Text: ""}))
}

func TestResolve_PatternMatchedButUnconfigured(t *testing.T) {
	resolver := NewAnswerResolver(map[string]string{"work_authorization": "Yes"}, nil)

	// Matches the relocation patterns but no answer is configured for it.
	assert.Nil(t, resolver.Resolve(Question{Text: "Are you willing to relocate?"}))
}

func TestResolve_CustomAnswers(t *testing.T) {
	resolver := testResolver()

	result := resolver.Resolve(Question{Text: "How did you hear about us?"})
	require.NotNil(t, result)
	assert.Equal(t, "LinkedIn", result.Answer)
	assert.Equal(t, "custom_answers", result.Source)
	assert.Equal(t, 0.95, result.Confidence)

	// Substring match still hits the custom answer.
	result = resolver.Resolve(Question{Text: "How did you hear about us? (required)"})
	require.NotNil(t, result)
	assert.Equal(t, "LinkedIn", result.Answer)
}

func TestResolve_CustomTakesPriority(t *testing.T) {
	resolver := testResolver()
	resolver.SetCustomAnswer("Do you require visa sponsorship?", "Custom No")

	result := resolver.Resolve(Question{Text: "Do you require visa sponsorship?"})
	require.NotNil(t, result)
	assert.Equal(t, "Custom No", result.Answer)
	assert.Equal(t, "custom_answers", result.Source)
}

func TestResolve_FitToOptions(t *testing.T) {
	resolver := testResolver()

	tests := []struct {
		name     string
		question string
		options  []string
		expected string
	}{
		{"exact match", "Are you authorized to work?", []string{"Yes", "No"}, "Yes"},
		{"case insensitive", "Are you authorized to work?", []string{"YES", "NO"}, "YES"},
		{"substring match", "What is your highest degree?",
			[]string{"High School", "Associate's Degree", "Bachelor's Degree", "Master's Degree", "PhD"},
			"Bachelor's Degree"},
		{"answer contained in option", "How many years of experience?", []string{"0-2", "3-5", "6-10", "10+"}, "3-5"},
		{"no matching option returns original", "How many years of experience?", []string{"None", "Some", "Lots"}, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Resolve(Question{Text: tt.question, FieldType: "dropdown", Options: tt.options})
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result.Answer)
		})
	}
}

func TestResolve_YesNoNormalization(t *testing.T) {
	resolver := NewAnswerResolver(map[string]string{"work_authorization": "true"}, nil)

	result := resolver.Resolve(Question{Text: "Are you authorized to work?", Options: []string{"Yes", "No"}})
	require.NotNil(t, result)
	assert.Equal(t, "Yes", result.Answer)
}

func TestResolveAll(t *testing.T) {
	resolver := testResolver()

	results := resolver.ResolveAll([]Question{
		{Text: "Are you authorized to work?", FieldType: "dropdown", Options: []string{"Yes", "No"}},
		{Text: "How many years of experience?", FieldType: "text"},
		{Text: "What is your favorite color?", FieldType: "text"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "Yes", results[0].Answer)
	assert.Equal(t, "5", results[1].Answer)
}

func TestLoadAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	content := `{
		"work_authorization": "Yes",
		"visa_sponsorship": "No",
		"years_of_experience": "5",
		"custom_answers": {
			"How did you hear about us?": "LinkedIn"
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	resolver, err := LoadAnswers(path)
	require.NoError(t, err)

	result := resolver.Resolve(Question{Text: "Do you require visa sponsorship?"})
	require.NotNil(t, result)
	assert.Equal(t, "No", result.Answer)

	result = resolver.Resolve(Question{Text: "How did you hear about us?"})
	require.NotNil(t, result)
	assert.Equal(t, "LinkedIn", result.Answer)
}

func TestLoadAnswers_SchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"work_authorization": 42}`), 0o644))

	_, err := LoadAnswers(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid answers config")
}

func TestLoadAnswers_MissingFile(t *testing.T) {
	_, err := LoadAnswers(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read answers config")
}

func TestLoadAnswers_DropsEmptyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"work_authorization": ""}`), 0o644))

	resolver, err := LoadAnswers(path)
	require.NoError(t, err)
	assert.Nil(t, resolver.Resolve(Question{Text: "Are you authorized to work?"}))
}
