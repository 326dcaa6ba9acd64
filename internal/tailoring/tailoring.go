// Package tailoring generates job-specific resume variants from a base template.
package tailoring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/analysis"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/prompts"
	"github.com/jonathan/job-agent/internal/types"
)

// GenerationError describes a failed attempt to produce a resume variant.
// Retryable errors (model/API failures) report Transient() true so callers
// can retry them; template and filesystem problems are permanent.
type GenerationError struct {
	Company   string
	Role      string
	Message   string
	Cause     error
	Retryable bool
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("tailoring for %s at %s: %s", e.Role, e.Company, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// Transient reports whether the failure is worth retrying.
func (e *GenerationError) Transient() bool { return e.Retryable }

// Tailor produces a resume variant for one job and returns the path of the
// written document.
type Tailor interface {
	Generate(ctx context.Context, job types.JobRecord, an *analysis.Analysis, templatePath string) (string, error)
}

// Generator is the LLM-backed Tailor. Variants are written into outputDir
// named <company>_<role>_<date>.md.
type Generator struct {
	client    llm.Client
	outputDir string
	now       func() time.Time
}

// NewGenerator creates a Generator writing variants under outputDir.
func NewGenerator(client llm.Client, outputDir string) *Generator {
	return &Generator{
		client:    client,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Generate tailors the template resume for the given job and writes the result.
func (g *Generator) Generate(ctx context.Context, job types.JobRecord, an *analysis.Analysis, templatePath string) (string, error) {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return "", &GenerationError{
			Company: job.Company,
			Role:    job.Title,
			Message: "failed to read resume template",
			Cause:   err,
		}
	}

	prompt := buildTailoringPrompt(job, an, string(template))

	// TierAdvanced: rewriting a full resume needs the strongest model.
	text, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", &GenerationError{
			Company:   job.Company,
			Role:      job.Title,
			Message:   "failed to generate tailored resume",
			Cause:     err,
			Retryable: true,
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &GenerationError{
			Company:   job.Company,
			Role:      job.Title,
			Message:   "model returned an empty resume",
			Retryable: true,
		}
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", &GenerationError{
			Company: job.Company,
			Role:    job.Title,
			Message: "failed to create output directory",
			Cause:   err,
		}
	}

	path := filepath.Join(g.outputDir, VariantName(job.Company, job.Title, g.now()))
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return "", &GenerationError{
			Company: job.Company,
			Role:    job.Title,
			Message: "failed to write resume variant",
			Cause:   err,
		}
	}

	return path, nil
}

// VariantName builds the file name for a tailored resume variant.
func VariantName(company, role string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.md", slug(company), slug(role), t.Format("20060102"))
}

// slug lowercases s and collapses every non-alphanumeric run into a single underscore.
func slug(s string) string {
	var sb strings.Builder
	lastUnderscore := true // suppress a leading underscore
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

// buildTailoringPrompt assembles the full prompt: intro, role context from the
// analysis, writing constraints, then the source resume.
func buildTailoringPrompt(job types.JobRecord, an *analysis.Analysis, template string) string {
	var sb strings.Builder

	intro := prompts.MustGet("tailoring.json", "tailor-resume-intro")
	sb.WriteString(prompts.Format(intro, map[string]string{
		"Company": job.Company,
		"Role":    job.Title,
	}))

	if an != nil {
		if reqs := requirementTexts(an.MustHave); len(reqs) > 0 {
			sb.WriteString("Hard requirements: ")
			sb.WriteString(strings.Join(reqs, ", "))
			sb.WriteString("\n")
		}
		if reqs := requirementTexts(an.NiceToHave); len(reqs) > 0 {
			sb.WriteString("Preferred: ")
			sb.WriteString(strings.Join(reqs, ", "))
			sb.WriteString("\n")
		}
		if len(an.Keywords) > 0 {
			sb.WriteString("Keywords: ")
			sb.WriteString(strings.Join(an.Keywords, ", "))
			sb.WriteString("\n")
		}
		if len(an.TailoringNotes) > 0 {
			sb.WriteString("Tailoring notes:\n")
			for _, note := range an.TailoringNotes {
				sb.WriteString("  * ")
				sb.WriteString(note)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(prompts.MustGet("tailoring.json", "tailor-resume-constraints"))
	sb.WriteString("\nSource resume:\n")
	sb.WriteString(template)

	return sb.String()
}

func requirementTexts(reqs []analysis.Requirement) []string {
	texts := make([]string, len(reqs))
	for i, req := range reqs {
		texts[i] = req.Text
	}
	return texts
}
