// Package gate decides whether automated submission may proceed for an
// application. Every check must pass; a denial is non-fatal and reports the
// reasons so the caller can reschedule or ask for human confirmation.
package gate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonathan/job-agent/internal/ratelimit"
	"github.com/jonathan/job-agent/internal/types"
)

// ReasonCode identifies a single failed submission check.
type ReasonCode string

// Reason codes, in check order.
const (
	ReasonResumeMissing        ReasonCode = "resume-missing"
	ReasonATSBelowFloor        ReasonCode = "ats-below-floor"
	ReasonMatchBelowFloor      ReasonCode = "match-below-floor"
	ReasonAlreadyApplied       ReasonCode = "already-applied"
	ReasonCompanyExcluded      ReasonCode = "company-excluded"
	ReasonConfirmationRequired ReasonCode = "confirmation-required"
	ReasonRateLimited          ReasonCode = "rate-limited"
)

// Decision is the gate's verdict for one application.
type Decision struct {
	Admitted bool
	Reasons  []ReasonCode
	// RetryAfter is set when the denial includes rate limiting.
	RetryAfter time.Duration
}

func (d Decision) String() string {
	if d.Admitted {
		return "admit"
	}
	codes := make([]string, len(d.Reasons))
	for i, r := range d.Reasons {
		codes[i] = string(r)
	}
	return "deny: " + strings.Join(codes, ", ")
}

// Request carries the application plus per-request flags into an evaluation.
type Request struct {
	Application *types.ApplicationRecord
	// Confirmed marks explicit human approval for this submission.
	Confirmed bool
	// Verbose makes the gate run every check and report all violated
	// reasons instead of stopping at the first failure.
	Verbose bool
}

// Policy holds the thresholds and company lists the gate enforces.
type Policy struct {
	// ATSFloor is the minimum ATS score for any submission.
	ATSFloor float64
	// MatchFloor is the minimum match score for any submission.
	MatchFloor float64
	// AutoApplyFloor is the higher ATS score an allow-listed company must
	// clear to submit without human confirmation.
	AutoApplyFloor float64
	// Excluded companies are never submitted to.
	Excluded []string
	// AutoApply lists companies eligible for unattended submission.
	AutoApply []string
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ATSFloor:       80,
		MatchFloor:     70,
		AutoApplyFloor: 85,
	}
}

func (p Policy) excluded(company string) bool {
	return containsFold(p.Excluded, company)
}

func (p Policy) autoApply(company string) bool {
	return containsFold(p.AutoApply, company)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// ArtifactChecker reports whether a resume-variant reference points at an
// artifact that actually exists.
type ArtifactChecker interface {
	Exists(ref string) bool
}

// FileArtifacts checks resume variants against the local filesystem.
type FileArtifacts struct{}

// Exists reports whether ref is a readable file.
func (FileArtifacts) Exists(ref string) bool {
	info, err := os.Stat(ref)
	return err == nil && !info.IsDir()
}

// AppliedIndex answers whether an identity has already been submitted.
type AppliedIndex interface {
	AppliedOrLater(ctx context.Context, id types.Identity) (bool, error)
}

// AdmissionChecker is the rate limiter view the gate needs. The gate only
// peeks; the submit budget is consumed by the caller at submission time.
type AdmissionChecker interface {
	Check(ctx context.Context, category string) (ratelimit.Decision, error)
}

// Gate evaluates submission preconditions for applications.
type Gate struct {
	policy    Policy
	artifacts ArtifactChecker
	applied   AppliedIndex
	limiter   AdmissionChecker
}

// New creates a gate with the given policy and collaborators.
func New(policy Policy, artifacts ArtifactChecker, applied AppliedIndex, limiter AdmissionChecker) *Gate {
	if artifacts == nil {
		artifacts = FileArtifacts{}
	}
	return &Gate{policy: policy, artifacts: artifacts, applied: applied, limiter: limiter}
}

// Floors returns the ATS and match score floors the gate enforces, so the
// preparation step can keep low-scoring records out of the submit queue.
func (g *Gate) Floors() (ats, match float64) {
	return g.policy.ATSFloor, g.policy.MatchFloor
}

// Evaluate runs the submission checks in order. By default it stops at the
// first failure; with Request.Verbose it runs all checks and reports every
// violated reason.
func (g *Gate) Evaluate(ctx context.Context, req Request) (Decision, error) {
	app := req.Application
	if app == nil {
		return Decision{}, fmt.Errorf("gate evaluation requires an application")
	}

	var decision Decision

	deny := func(reason ReasonCode) bool {
		decision.Reasons = append(decision.Reasons, reason)
		return !req.Verbose
	}

	if app.ResumeVariant == "" || !g.artifacts.Exists(app.ResumeVariant) {
		if deny(ReasonResumeMissing) {
			return decision, nil
		}
	}

	if app.ATSScore == nil || *app.ATSScore < g.policy.ATSFloor {
		if deny(ReasonATSBelowFloor) {
			return decision, nil
		}
	}

	if app.MatchScore == nil || *app.MatchScore < g.policy.MatchFloor {
		if deny(ReasonMatchBelowFloor) {
			return decision, nil
		}
	}

	alreadyApplied, err := g.applied.AppliedOrLater(ctx, app.Identity)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check prior submission: %w", err)
	}
	if alreadyApplied {
		if deny(ReasonAlreadyApplied) {
			return decision, nil
		}
	}

	if g.policy.excluded(app.Company) {
		if deny(ReasonCompanyExcluded) {
			return decision, nil
		}
	}

	// Unattended submission needs an allow-listed company clearing the
	// higher floor; anything else needs explicit confirmation.
	autoEligible := g.policy.autoApply(app.Company) &&
		app.ATSScore != nil && *app.ATSScore >= g.policy.AutoApplyFloor
	if !autoEligible && !req.Confirmed {
		if deny(ReasonConfirmationRequired) {
			return decision, nil
		}
	}

	admission, err := g.limiter.Check(ctx, ratelimit.CategorySubmit)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check submission budget: %w", err)
	}
	if !admission.Allowed {
		decision.RetryAfter = admission.RetryAfter
		if deny(ReasonRateLimited) {
			return decision, nil
		}
	}

	decision.Admitted = len(decision.Reasons) == 0
	return decision, nil
}
