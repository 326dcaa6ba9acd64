// Package orchestrator drives discovered jobs through analysis, tailoring,
// gating, and submission, persisting every step through the record store.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-agent/internal/analysis"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/gate"
	"github.com/jonathan/job-agent/internal/identity"
	"github.com/jonathan/job-agent/internal/lifecycle"
	"github.com/jonathan/job-agent/internal/ratelimit"
	"github.com/jonathan/job-agent/internal/retry"
	"github.com/jonathan/job-agent/internal/submission"
	"github.com/jonathan/job-agent/internal/tailoring"
	"github.com/jonathan/job-agent/internal/types"
)

// conflictRetries bounds how often a version-conflicted update is re-read
// and re-applied before giving up.
const conflictRetries = 3

// DefaultConcurrency is the batch worker limit when none is configured.
const DefaultConcurrency = 4

// Result is the outcome of processing one job.
type Result struct {
	Application *types.ApplicationRecord
	// Decision is set when the gate evaluated the application this run.
	Decision *gate.Decision
	// Confirmation is set when a submission completed.
	Confirmation *submission.Confirmation
	// Err carries a per-job failure in batch processing.
	Err error
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Store     db.Store
	Gate      *gate.Gate
	Limiter   *ratelimit.Limiter
	Analyzer  *analysis.Analyzer
	Scorer    *analysis.ATSScorer
	Tailor    tailoring.Tailor
	Submitter submission.Submitter
	Answers   *submission.AnswerResolver
	Pause     *PauseController

	// RetryPolicy bounds tailoring, scoring, and submission attempts.
	RetryPolicy retry.Policy
	// TemplatePath is the base resume handed to the tailor.
	TemplatePath string
	// RoleType selects the ATS role keyword set.
	RoleType string
	Verbose  bool
}

// Orchestrator processes applications one status step at a time. Distinct
// identities may be processed concurrently; per-record writes are serialized
// by the store's version stamps.
type Orchestrator struct {
	store     db.Store
	gate      *gate.Gate
	limiter   *ratelimit.Limiter
	analyzer  *analysis.Analyzer
	scorer    *analysis.ATSScorer
	tailor    tailoring.Tailor
	submitter submission.Submitter
	answers   *submission.AnswerResolver
	pause     *PauseController

	policy       retry.Policy
	templatePath string
	roleType     string
	verbose      bool

	now func() time.Time
}

// New creates an orchestrator. A nil Pause gets a fresh controller; a zero
// RetryPolicy defaults to 3 attempts with exponential backoff.
func New(opts Options) *Orchestrator {
	if opts.Pause == nil {
		opts.Pause = NewPauseController()
	}
	if opts.RetryPolicy.MaxAttempts == 0 {
		opts.RetryPolicy = retry.Policy{MaxAttempts: 3, Strategy: retry.DefaultStrategy()}
	}
	return &Orchestrator{
		store:        opts.Store,
		gate:         opts.Gate,
		limiter:      opts.Limiter,
		analyzer:     opts.Analyzer,
		scorer:       opts.Scorer,
		tailor:       opts.Tailor,
		submitter:    opts.Submitter,
		answers:      opts.Answers,
		pause:        opts.Pause,
		policy:       opts.RetryPolicy,
		templatePath: opts.TemplatePath,
		roleType:     opts.RoleType,
		verbose:      opts.Verbose,
		now:          time.Now,
	}
}

// Pause returns the process-wide pause controller.
func (o *Orchestrator) Pause() *PauseController {
	return o.pause
}

// ProcessJob drives one job from its current status as far as the pipeline
// allows: discovered -> analyzing -> ready -> applied. A failed step leaves
// the record at its last persisted status. Gate denial is not an error; the
// decision is reported on the result.
func (o *Orchestrator) ProcessJob(ctx context.Context, job types.JobRecord, confirmed bool) (*Result, error) {
	return o.process(ctx, job, confirmed, true)
}

// PrepareJob drives a job through analysis, tailoring, and scoring, stopping
// at ready. The gate is never evaluated and no submit budget is consumed.
func (o *Orchestrator) PrepareJob(ctx context.Context, job types.JobRecord) (*Result, error) {
	return o.process(ctx, job, false, false)
}

func (o *Orchestrator) process(ctx context.Context, job types.JobRecord, confirmed, submitEnabled bool) (*Result, error) {
	if job.Identity == "" {
		job.Identity = identity.ComputeForJob(job)
	}
	stored, err := o.store.PutJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	app, err := o.store.CreateApplication(ctx, types.NewApplication(*stored, o.now()))
	if err != nil {
		var dup *db.DuplicateIdentityError
		if !errors.As(err, &dup) {
			return nil, fmt.Errorf("failed to create application: %w", err)
		}
		o.logf("%s @ %s: already tracked, resuming from %s", app.Role, app.Company, app.Status)
	}

	for {
		switch app.Status {
		case types.StatusDiscovered:
			app, err = o.updateApp(ctx, app, func(rec *types.ApplicationRecord) error {
				return lifecycle.Apply(rec, types.StatusAnalyzing, o.now(), "analysis started")
			})
		case types.StatusAnalyzing:
			app, err = o.prepare(ctx, stored, app)
			if err == nil && app.Status == types.StatusAnalyzing {
				// Scored below floor; nothing further to drive this run.
				return &Result{Application: app}, nil
			}
		case types.StatusReady:
			if !submitEnabled {
				return &Result{Application: app}, nil
			}
			return o.submit(ctx, app, confirmed)
		default:
			// Applied, terminal, or awaiting external signals: nothing to drive.
			return &Result{Application: app}, nil
		}
		if err != nil {
			return &Result{Application: app, Err: err}, err
		}
	}
}

// prepare analyzes the job, generates a tailored resume variant, and scores
// it. The application moves to ready only when both scores clear the gate's
// floors; otherwise it keeps its scores but stays at analyzing. Analysis is
// pure; tailoring is retried per policy.
func (o *Orchestrator) prepare(ctx context.Context, job *types.JobRecord, app *types.ApplicationRecord) (*types.ApplicationRecord, error) {
	an, err := o.analyzer.Analyze(ctx, *job)
	if err != nil {
		return app, fmt.Errorf("failed to analyze %s at %s: %w", app.Role, app.Company, err)
	}
	o.logf("%s @ %s: match score %.1f", app.Role, app.Company, an.MatchScore)

	var variant string
	err = o.retryOp(ctx, app, types.OpTailor, func(ctx context.Context) error {
		var genErr error
		variant, genErr = o.tailor.Generate(ctx, *job, an, o.templatePath)
		return genErr
	})
	if err != nil {
		return app, err
	}

	resumeText, err := os.ReadFile(variant)
	if err != nil {
		return app, fmt.Errorf("failed to read resume variant %s: %w", variant, err)
	}
	ats := o.scorer.Score(string(resumeText), job.Description, o.roleType)
	o.logf("%s @ %s: ATS score %.1f (%s)", app.Role, app.Company, ats.TotalScore, ats.Recommendation)

	matchScore, atsScore := an.MatchScore, ats.TotalScore
	atsFloor, matchFloor := gate.DefaultPolicy().ATSFloor, gate.DefaultPolicy().MatchFloor
	if o.gate != nil {
		atsFloor, matchFloor = o.gate.Floors()
	}
	if atsScore < atsFloor || matchScore < matchFloor {
		// Below-floor records stay at analyzing so a later run with a
		// better template or profile can rescore them.
		o.logf("%s @ %s: scores below floor (ats %.1f/%.1f, match %.1f/%.1f), not queueing",
			app.Role, app.Company, atsScore, atsFloor, matchScore, matchFloor)
		return o.updateApp(ctx, app, func(rec *types.ApplicationRecord) error {
			rec.MatchScore = &matchScore
			rec.ATSScore = &atsScore
			rec.ResumeVariant = variant
			return nil
		})
	}
	return o.updateApp(ctx, app, func(rec *types.ApplicationRecord) error {
		rec.MatchScore = &matchScore
		rec.ATSScore = &atsScore
		rec.ResumeVariant = variant
		return lifecycle.Apply(rec, types.StatusReady, o.now(), "analysis complete")
	})
}

// submit runs the gate, consumes the submit budget, and performs the
// submission. Captcha and auth-expiry signals pause the whole process
// before propagating.
func (o *Orchestrator) submit(ctx context.Context, app *types.ApplicationRecord, confirmed bool) (*Result, error) {
	decision, err := o.gate.Evaluate(ctx, gate.Request{Application: app, Confirmed: confirmed})
	if err != nil {
		return &Result{Application: app, Err: err}, err
	}
	result := &Result{Application: app, Decision: &decision}
	if !decision.Admitted {
		o.logf("%s @ %s: gate denied (%s)", app.Role, app.Company, decision)
		return result, nil
	}

	if o.pause.Paused() {
		_, reason, _ := o.pause.Status()
		err := &PausedError{Reason: reason}
		result.Err = err
		return result, err
	}

	admit, err := o.limiter.Allow(ctx, ratelimit.CategorySubmit)
	if err != nil {
		result.Err = err
		return result, err
	}
	if !admit.Allowed {
		err := &RateLimitDeniedError{Category: ratelimit.CategorySubmit, RetryAfter: admit.RetryAfter}
		result.Err = err
		return result, err
	}

	var answers []submission.ResolvedAnswer
	if o.answers != nil {
		answers = o.answers.ResolveAll(submission.StandardQuestions())
	}

	var confirmation *submission.Confirmation
	jobRecord, err := o.store.GetJobByIdentity(ctx, app.Identity)
	if err != nil {
		result.Err = err
		return result, err
	}
	if jobRecord == nil {
		err := fmt.Errorf("no job record for identity %s", app.Identity)
		result.Err = err
		return result, err
	}

	err = o.retryOp(ctx, app, types.OpSubmit, func(ctx context.Context) error {
		var subErr error
		confirmation, subErr = o.submitter.Submit(ctx, *jobRecord, app.ResumeVariant, answers)
		return subErr
	})
	if err != nil {
		var captcha *submission.CaptchaDetectedError
		var auth *submission.AuthExpiredError
		switch {
		case errors.As(err, &captcha):
			o.pause.Pause(captcha.Error())
			o.logf("%s @ %s: captcha detected, pausing all submissions", app.Role, app.Company)
		case errors.As(err, &auth):
			o.pause.Pause(auth.Error())
			o.logf("%s @ %s: authentication expired, pausing all submissions", app.Role, app.Company)
		}
		result.Err = err
		return result, err
	}

	updated, err := o.updateApp(ctx, app, func(rec *types.ApplicationRecord) error {
		return lifecycle.Apply(rec, types.StatusApplied, o.now(), "submitted")
	})
	if err != nil {
		result.Err = err
		return result, err
	}

	o.logf("%s @ %s: applied", app.Role, app.Company)
	result.Application = updated
	result.Confirmation = confirmation
	return result, nil
}

// ProcessAll processes jobs concurrently, bounded by the concurrency limit.
// Per-job failures are recorded on their results; a pipeline pause (captcha
// or expired authentication) aborts the rest of the batch.
func (o *Orchestrator) ProcessAll(ctx context.Context, jobs []types.JobRecord, concurrency int, confirmed bool) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			res, err := o.ProcessJob(ctx, job, confirmed)
			if res == nil {
				res = &Result{Err: err}
			}
			results[i] = res
			if err != nil {
				var captcha *submission.CaptchaDetectedError
				var auth *submission.AuthExpiredError
				var paused *PausedError
				if errors.As(err, &captcha) || errors.As(err, &auth) || errors.As(err, &paused) {
					return err
				}
				o.logf("%s @ %s: %v", job.Title, job.Company, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// MarkStaleApplications moves applied records with no activity for olderThan
// into follow_up_pending, returning how many were moved.
func (o *Orchestrator) MarkStaleApplications(ctx context.Context, olderThan time.Duration) (int, error) {
	apps, err := o.store.ListApplicationsByStatus(ctx, types.StatusApplied)
	if err != nil {
		return 0, fmt.Errorf("failed to list applied records: %w", err)
	}

	cutoff := o.now().Add(-olderThan)
	moved := 0
	for _, app := range apps {
		if app.UpdatedAt.After(cutoff) {
			continue
		}
		note := fmt.Sprintf("no response for %s", olderThan)
		if _, err := o.updateApp(ctx, app, func(rec *types.ApplicationRecord) error {
			return lifecycle.Apply(rec, types.StatusFollowUpPending, o.now(), note)
		}); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// retryOp runs op under the retry policy, persists the retry counter for
// failed attempts, and escalates budget exhaustion to OperationFailedError.
func (o *Orchestrator) retryOp(ctx context.Context, app *types.ApplicationRecord, kind types.OperationKind, op func(ctx context.Context) error) error {
	attempts := 0
	err := retry.Do(ctx, o.policy, func(ctx context.Context) error {
		attempts++
		return op(ctx)
	})

	failed := attempts
	if err == nil {
		failed = attempts - 1
	}
	if failed > 0 {
		// Counter persistence is best effort; the step outcome decides flow.
		if updated, uerr := o.updateApp(ctx, app, func(rec *types.ApplicationRecord) error {
			for i := 0; i < failed; i++ {
				rec.IncrementRetry(kind)
			}
			return nil
		}); uerr == nil {
			*app = *updated
		}
	}

	if err == nil {
		return nil
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return &OperationFailedError{
			Operation: kind,
			Company:   app.Company,
			Role:      app.Role,
			Attempts:  exhausted.Attempts,
			Err:       exhausted.Err,
		}
	}
	return err
}

// updateApp applies the mutation under optimistic versioning. On conflict
// the record is re-read and the mutation re-evaluated against the fresh
// copy, never blindly overwritten.
func (o *Orchestrator) updateApp(ctx context.Context, app *types.ApplicationRecord, mutate db.Mutation) (*types.ApplicationRecord, error) {
	current := app
	for i := 0; i < conflictRetries; i++ {
		updated, err := o.store.UpdateApplication(ctx, current.Identity, current.Version, mutate)
		if err == nil {
			return updated, nil
		}
		var conflict *db.ConflictError
		if !errors.As(err, &conflict) {
			return nil, err
		}
		fresh, getErr := o.store.GetApplication(ctx, current.Identity)
		if getErr != nil {
			return nil, getErr
		}
		if fresh == nil {
			return nil, err
		}
		current = fresh
	}
	return nil, fmt.Errorf("failed to update %s at %s after %d conflicting attempts", app.Role, app.Company, conflictRetries)
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.verbose {
		fmt.Printf("[VERBOSE] "+format+"\n", args...)
	}
}
