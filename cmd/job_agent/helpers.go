package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/job-agent/internal/analysis"
	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/gate"
	"github.com/jonathan/job-agent/internal/identity"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/orchestrator"
	"github.com/jonathan/job-agent/internal/ratelimit"
	"github.com/jonathan/job-agent/internal/retry"
	"github.com/jonathan/job-agent/internal/submission"
	"github.com/jonathan/job-agent/internal/tailoring"
)

// loadCLIConfig loads and validates the config file when a path is given.
func loadCLIConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path == "" {
		return cfg, nil
	}
	loaded, err := config.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return cfg, err
	}
	return *loaded, nil
}

// finishConfig applies built-in defaults and environment fallbacks after CLI
// overrides have been merged in.
func finishConfig(cfg config.Config) config.Config {
	cfg = cfg.MergeWithDefaults(config.Config{
		Targets:  "config/targets.yaml",
		Profile:  "config/profile.yaml",
		Answers:  "config/answers.json",
		Resumes:  "resumes",
		Template: "templates/resume.md",
	})
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg
}

// openStore connects to Postgres when a database URL is configured, falling
// back to the in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config) (db.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "Warning: no DATABASE_URL configured; records will not outlive this run")
		return db.NewMemory(), func() {}, nil
	}

	pg, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return pg, pg.Close, nil
}

// maybeLoadTargets loads the targets file when it exists. A missing file at
// the default path is not an error; the gate just runs without company lists.
func maybeLoadTargets(cfg config.Config) (*config.Targets, error) {
	if _, err := os.Stat(cfg.Targets); os.IsNotExist(err) {
		return nil, nil
	}
	targets, err := config.LoadTargets(cfg.Targets, cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	return targets, nil
}

// pauseStatePath is where the cross-invocation submission pause flag lives.
func pauseStatePath(cfg config.Config) string {
	return filepath.Join(cfg.Resumes, "submissions_paused.json")
}

// limiterConfig maps the operator's configured ceilings onto the rate limit
// windows. Environment variables still win for operational tuning.
func limiterConfig(cfg config.Config) *ratelimit.Config {
	return ratelimit.LoadConfigWith(ratelimit.Ceilings{
		SubmitHourly: cfg.SubmitHourlyLimit,
		SubmitDaily:  cfg.SubmitDailyLimit,
		SearchHourly: cfg.SearchHourlyLimit,
	})
}

// runtime bundles the wired collaborators a pipeline command needs.
type runtime struct {
	cfg      config.Config
	store    db.Store
	analyzer *analysis.Analyzer
	orch     *orchestrator.Orchestrator
	printer  *observability.Printer

	closeDB  func()
	llmClose func() error
}

// Close releases the runtime's database and LLM connections.
func (r *runtime) Close() {
	if r.llmClose != nil {
		_ = r.llmClose()
	}
	if r.closeDB != nil {
		r.closeDB()
	}
}

// newRuntime wires the orchestrator and its collaborators from config. When
// submit is false no browser submitter is attached and the gate is never
// reached, so apply-only concerns (answers file, pause state) are skipped.
func newRuntime(ctx context.Context, cfg config.Config, submit bool) (*runtime, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or api_key config value is required")
	}

	targets, err := maybeLoadTargets(cfg)
	if err != nil {
		return nil, err
	}

	store, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var skills []string
	roleType := "backend"
	if _, err := os.Stat(cfg.Profile); err == nil {
		profile, err := config.LoadProfile(cfg.Profile)
		if err != nil {
			closeDB()
			return nil, err
		}
		skills = profile.AllSkills()
		if profile.RoleType != "" {
			roleType = profile.RoleType
		}
	}

	var badWords []string
	badWordPenalty := 0.0
	policy := gate.Policy{
		ATSFloor:       cfg.ATSFloor,
		MatchFloor:     cfg.MatchFloor,
		AutoApplyFloor: cfg.AutoApplyFloor,
	}
	if targets != nil {
		badWords = targets.BadWords.DescriptionWords
		badWordPenalty = targets.PenaltyPerMatch()
		policy.Excluded = targets.ExcludedCompanies()
		policy.AutoApply = targets.AutoApplyCompanies()
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	limiter := ratelimit.NewLimiter(store, limiterConfig(cfg))

	opts := orchestrator.Options{
		Store:        store,
		Gate:         gate.New(policy, gate.FileArtifacts{}, identity.NewIndex(store), limiter),
		Limiter:      limiter,
		Analyzer:     analysis.NewAnalyzer(skills, badWords, badWordPenalty),
		Scorer:       analysis.NewATSScorer(),
		Tailor:       tailoring.NewGenerator(client, cfg.Resumes),
		RetryPolicy:  retry.Policy{MaxAttempts: cfg.MaxAttempts, Strategy: retry.DefaultStrategy()},
		TemplatePath: cfg.Template,
		RoleType:     roleType,
		Verbose:      cfg.Verbose,
	}

	if submit {
		if err := os.MkdirAll(cfg.Resumes, 0o755); err != nil {
			closeDB()
			return nil, fmt.Errorf("failed to create resumes directory: %w", err)
		}
		opts.Pause = orchestrator.NewFilePauseController(pauseStatePath(cfg))
		opts.Submitter = submission.NewBrowser(time.Duration(cfg.SubmitTimeout)*time.Second, cfg.Verbose)

		if _, err := os.Stat(cfg.Answers); err == nil {
			answers, err := submission.LoadAnswers(cfg.Answers)
			if err != nil {
				closeDB()
				return nil, err
			}
			opts.Answers = answers
		} else if cfg.Verbose {
			fmt.Fprintf(os.Stdout, "[VERBOSE] no answers file at %s; screening questions will be left blank\n", cfg.Answers)
		}
	}

	return &runtime{
		cfg:      cfg,
		store:    store,
		analyzer: opts.Analyzer,
		orch:     orchestrator.New(opts),
		printer:  observability.NewPrinter(os.Stdout),
		closeDB:  closeDB,
		llmClose: client.Close,
	}, nil
}

// followUpThreshold converts the configured follow-up days into a duration.
func followUpThreshold(cfg config.Config) time.Duration {
	return time.Duration(cfg.FollowUpDays) * 24 * time.Hour
}
