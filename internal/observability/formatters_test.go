package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-agent/internal/analysis"
	"github.com/jonathan/job-agent/internal/gate"
	"github.com/jonathan/job-agent/internal/types"
)

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	years := 5
	an := &analysis.Analysis{
		Company:    "Acme Corp",
		Role:       "Backend Engineer",
		MatchScore: 74.0,
		MustHave: []analysis.Requirement{
			{Text: "5+ years of Go", Matched: true},
			{Text: "PostgreSQL at scale"},
		},
		MissingSkills:   []string{"terraform"},
		RemotePolicy:    "fully_remote",
		ExperienceYears: &years,
	}

	p.PrintAnalysis(an)
	output := buf.String()

	assert.Contains(t, output, "JOB ANALYSIS")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "Backend Engineer")
	assert.Contains(t, output, "74.0")
	assert.Contains(t, output, "5+ years of Go")
	assert.Contains(t, output, "fully_remote")
	assert.Contains(t, output, "terraform")
}

func TestPrintAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(nil)
	assert.Empty(t, buf.String())
}

func TestPrintAnalysis_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	an := &analysis.Analysis{Company: "Acme", Role: "SRE"}
	for i := 0; i < 8; i++ {
		an.MustHave = append(an.MustHave, analysis.Requirement{Text: "requirement"})
	}

	p.PrintAnalysis(an)
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintATSScore(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	score := &analysis.ATSScore{
		TotalScore:      82.0,
		KeywordScore:    32.0,
		SectionScore:    20.0,
		MetricsScore:    14.0,
		FormattingScore: 16.0,
		MissingKeywords: []string{"kafka"},
		Recommendation:  analysis.RecommendReady,
	}

	p.PrintATSScore(score)
	output := buf.String()

	assert.Contains(t, output, "ATS SCORE")
	assert.Contains(t, output, "82.0")
	assert.Contains(t, output, "ready")
	assert.Contains(t, output, "kafka")
}

func TestPrintGateDecision_Denied(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGateDecision(gate.Decision{
		Reasons:    []gate.ReasonCode{gate.ReasonATSBelowFloor, gate.ReasonRateLimited},
		RetryAfter: 25 * time.Minute,
	})
	output := buf.String()

	assert.Contains(t, output, "DENIED")
	assert.Contains(t, output, "ats-below-floor")
	assert.Contains(t, output, "rate-limited")
	assert.Contains(t, output, "25m")
}

func TestPrintGateDecision_Admitted(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGateDecision(gate.Decision{Admitted: true})
	assert.Contains(t, buf.String(), "ADMITTED")
}

func TestPrintPipelineStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPipelineStats(map[types.Status]int{
		types.StatusDiscovered: 4,
		types.StatusApplied:    2,
		types.StatusRejected:   1,
	})
	output := buf.String()

	assert.Contains(t, output, "PIPELINE STATUS")
	assert.Contains(t, output, "discovered")
	assert.Contains(t, output, "applied")
	assert.Contains(t, output, "total")
	assert.Contains(t, output, "7")
	// Empty statuses are omitted.
	assert.NotContains(t, output, "interviewing")
}

func TestPrintApplications(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	match, ats := 74.0, 82.0
	apps := []*types.ApplicationRecord{
		{Company: "Acme", Role: "Backend Engineer", Status: types.StatusReady, MatchScore: &match, ATSScore: &ats},
		{Company: "Bigcorp", Role: "SRE", Status: types.StatusDiscovered},
	}

	p.PrintApplications(apps)
	output := buf.String()

	assert.Contains(t, output, "APPLICATIONS")
	assert.Contains(t, output, "Backend Engineer @ Acme")
	assert.Contains(t, output, "match 74, ats 82")
	assert.Contains(t, output, "SRE @ Bigcorp")
}

func TestPrintApplications_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintApplications(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 100))
	output := buf.String()

	assert.Contains(t, output, "...")
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}

func TestPrintFunnel(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	apps := []*types.ApplicationRecord{
		{Company: "Acme", Role: "Backend Engineer", Status: types.StatusApplied},
		{Company: "Acme", Role: "SRE", Status: types.StatusRejected},
		{Company: "Bigcorp", Role: "Platform Engineer", Status: types.StatusInterviewing},
		{Company: "Initech", Role: "Backend Engineer", Status: types.StatusReady},
	}

	p.PrintFunnel(apps)
	output := buf.String()

	assert.Contains(t, output, "APPLICATION FUNNEL")
	assert.Contains(t, output, "tracked")
	assert.Contains(t, output, "4")
	// Three submitted, two responses (interview + rejection).
	assert.Contains(t, output, "submitted")
	assert.Contains(t, output, "67%")
	assert.Contains(t, output, "Top companies:")
	assert.Contains(t, output, "Acme")
}

func TestPrintFunnel_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFunnel(nil)
	assert.Empty(t, buf.String())
}
