package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze discovered postings and prepare tailored resumes",
	Long:  "Drive every discovered posting through requirement analysis, resume tailoring, and ATS scoring, leaving each application at ready. Nothing is submitted.",
	RunE:  runAnalyze,
}

var (
	analyzeConfigPath  string
	analyzeTemplate    string
	analyzeResumesDir  string
	analyzeAPIKey      string
	analyzeDatabaseURL string
	analyzeLimit       int
	analyzeVerbose     bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	analyzeCmd.Flags().StringVarP(&analyzeTemplate, "template", "t", "", "Path to the base resume handed to the tailor")
	analyzeCmd.Flags().StringVarP(&analyzeResumesDir, "resumes", "o", "", "Directory for generated resume variants")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCmd.Flags().StringVar(&analyzeDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 0, "Stop after this many applications (0 = unlimited)")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadCLIConfig(analyzeConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = analyzeTemplate
	}
	if cmd.Flags().Changed("resumes") {
		cfg.Resumes = analyzeResumesDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = analyzeAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = analyzeDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = analyzeVerbose
	}
	cfg = finishConfig(cfg)

	rt, err := newRuntime(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	pending, err := pendingApplications(ctx, rt)
	if err != nil {
		return err
	}
	if analyzeLimit > 0 && len(pending) > analyzeLimit {
		pending = pending[:analyzeLimit]
	}
	if len(pending) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing to analyze")
		return nil
	}

	var prepared []*types.ApplicationRecord
	failures := 0
	for _, app := range pending {
		job, err := rt.store.GetJobByIdentity(ctx, app.Identity)
		if err != nil {
			return fmt.Errorf("failed to load job for %s at %s: %w", app.Role, app.Company, err)
		}
		if job == nil {
			fmt.Fprintf(os.Stderr, "Skipping %s @ %s: no job record\n", app.Role, app.Company)
			continue
		}

		result, err := rt.orch.PrepareJob(ctx, *job)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "Failed %s @ %s: %v\n", app.Role, app.Company, err)
			continue
		}
		prepared = append(prepared, result.Application)

		if cfg.Verbose {
			an, err := rt.analyzer.Analyze(ctx, *job)
			if err == nil {
				rt.printer.PrintAnalysis(an)
			}
		}
	}

	rt.printer.PrintApplications(prepared)
	fmt.Fprintf(os.Stdout, "Prepared %d of %d applications (%d failed)\n", len(prepared), len(pending), failures)
	return nil
}

// pendingApplications lists applications not yet tailored, oldest stages
// first so stalled records are retried before fresh discoveries.
func pendingApplications(ctx context.Context, rt *runtime) ([]*types.ApplicationRecord, error) {
	var pending []*types.ApplicationRecord
	for _, status := range []types.Status{types.StatusAnalyzing, types.StatusDiscovered} {
		apps, err := rt.store.ListApplicationsByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s applications: %w", status, err)
		}
		pending = append(pending, apps...)
	}
	return pending, nil
}
