// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/job-agent/internal/analysis"
	"github.com/jonathan/job-agent/internal/gate"
	"github.com/jonathan/job-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintAnalysis outputs a human-readable summary of a job analysis.
func (p *Printer) PrintAnalysis(an *analysis.Analysis) {
	if an == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Company:  %s\n", an.Company))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", an.Role))
	sb.WriteString(fmt.Sprintf("Match:    %.1f\n", an.MatchScore))
	if an.RemotePolicy != "" {
		sb.WriteString(fmt.Sprintf("Remote:   %s\n", an.RemotePolicy))
	}
	if an.ExperienceYears != nil {
		sb.WriteString(fmt.Sprintf("Years:    %d+\n", *an.ExperienceYears))
	}
	sb.WriteString("\n")

	if len(an.MustHave) > 0 {
		sb.WriteString("Must-haves:\n")
		count := min(len(an.MustHave), maxItemsToShow)
		for i := 0; i < count; i++ {
			req := an.MustHave[i]
			marker := " "
			if req.Matched {
				marker = "✓"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", marker, req.Text))
		}
		if len(an.MustHave) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(an.MustHave)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(an.MissingSkills) > 0 {
		skills := strings.Join(an.MissingSkills, ", ")
		if len(skills) > 40 {
			skills = skills[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("Missing skills: %s\n", skills))
	}

	p.printBox("JOB ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintATSScore outputs the ATS component breakdown and recommendation.
func (p *Printer) PrintATSScore(score *analysis.ATSScore) {
	if score == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Keywords:    %5.1f / 40\n", score.KeywordScore))
	sb.WriteString(fmt.Sprintf("Sections:    %5.1f / 20\n", score.SectionScore))
	sb.WriteString(fmt.Sprintf("Metrics:     %5.1f / 20\n", score.MetricsScore))
	sb.WriteString(fmt.Sprintf("Formatting:  %5.1f / 20\n", score.FormattingScore))
	sb.WriteString(fmt.Sprintf("Total:       %5.1f\n\n", score.TotalScore))
	sb.WriteString(fmt.Sprintf("Recommendation: %s", score.Recommendation))

	if len(score.MissingKeywords) > 0 {
		missing := strings.Join(score.MissingKeywords, ", ")
		if len(missing) > 40 {
			missing = missing[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("\nMissing keywords: %s", missing))
	}

	p.printBox("ATS SCORE", sb.String())
}

// PrintGateDecision outputs the gate verdict with its reasons.
func (p *Printer) PrintGateDecision(decision gate.Decision) {
	var sb strings.Builder
	if decision.Admitted {
		sb.WriteString("ADMITTED")
	} else {
		sb.WriteString("DENIED\n\n")
		for _, reason := range decision.Reasons {
			sb.WriteString(fmt.Sprintf("  • %s\n", reason))
		}
		if decision.RetryAfter > 0 {
			sb.WriteString(fmt.Sprintf("\nRetry after: %s", decision.RetryAfter))
		}
	}
	p.printBox("SUBMISSION GATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPipelineStats outputs application counts per status in pipeline order.
func (p *Printer) PrintPipelineStats(stats map[types.Status]int) {
	var sb strings.Builder
	total := 0
	for _, status := range types.AllStatuses {
		count := stats[status]
		total += count
		if count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-18s %d\n", status, count))
	}
	sb.WriteString(fmt.Sprintf("\n%-18s %d", "total", total))
	p.printBox("PIPELINE STATUS", sb.String())
}

// PrintApplications outputs a short listing of application records.
func (p *Printer) PrintApplications(apps []*types.ApplicationRecord) {
	if len(apps) == 0 {
		return
	}

	var sb strings.Builder
	for i, app := range apps {
		line := fmt.Sprintf("%s @ %s", app.Role, app.Company)
		if len(line) > 40 {
			line = line[:37] + "..."
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		scores := ""
		if app.MatchScore != nil {
			scores += fmt.Sprintf("match %.0f", *app.MatchScore)
		}
		if app.ATSScore != nil {
			if scores != "" {
				scores += ", "
			}
			scores += fmt.Sprintf("ats %.0f", *app.ATSScore)
		}
		if scores != "" {
			sb.WriteString(fmt.Sprintf("  %s (%s)\n", app.Status, scores))
		} else {
			sb.WriteString(fmt.Sprintf("  %s\n", app.Status))
		}
		if i < len(apps)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("APPLICATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFunnel outputs submission analytics across all tracked applications:
// submitted count, employer response rate, and the most-applied-to companies.
func (p *Printer) PrintFunnel(apps []*types.ApplicationRecord) {
	if len(apps) == 0 {
		return
	}

	submitted, responses := 0, 0
	byCompany := make(map[string]int)
	for _, app := range apps {
		byCompany[app.Company]++
		if statusSubmitted(app.Status) {
			submitted++
		}
		if statusResponded(app.Status) {
			responses++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-18s %d\n", "tracked", len(apps)))
	sb.WriteString(fmt.Sprintf("%-18s %d\n", "submitted", submitted))
	if submitted > 0 {
		sb.WriteString(fmt.Sprintf("%-18s %.0f%%\n", "response rate", float64(responses)/float64(submitted)*100))
	}

	companies := make([]string, 0, len(byCompany))
	for company := range byCompany {
		companies = append(companies, company)
	}
	sort.Slice(companies, func(i, j int) bool {
		if byCompany[companies[i]] != byCompany[companies[j]] {
			return byCompany[companies[i]] > byCompany[companies[j]]
		}
		return companies[i] < companies[j]
	})
	if len(companies) > maxItemsToShow {
		companies = companies[:maxItemsToShow]
	}

	sb.WriteString("\nTop companies:")
	for _, company := range companies {
		sb.WriteString(fmt.Sprintf("\n  %-16s %d", company, byCompany[company]))
	}
	p.printBox("APPLICATION FUNNEL", sb.String())
}

// statusSubmitted reports whether the application reached the employer.
func statusSubmitted(s types.Status) bool {
	switch s {
	case types.StatusApplied, types.StatusResponded, types.StatusInterviewing,
		types.StatusOffer, types.StatusRejected, types.StatusFollowUpPending:
		return true
	}
	return false
}

// statusResponded reports whether the employer reacted, including rejections.
func statusResponded(s types.Status) bool {
	switch s {
	case types.StatusResponded, types.StatusInterviewing, types.StatusOffer, types.StatusRejected:
		return true
	}
	return false
}
