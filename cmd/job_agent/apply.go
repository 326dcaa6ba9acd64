package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/orchestrator"
	"github.com/jonathan/job-agent/internal/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Submit ready applications through the gate",
	Long:  "Evaluate every ready application against the submission gate and submit the admitted ones with a headless browser. Denials are reported, not retried. A captcha pauses all further submissions until resume-submissions is run.",
	RunE:  runApply,
}

var (
	applyConfigPath  string
	applyConfirm     bool
	applyConcurrency int
	applyLimit       int
	applyAPIKey      string
	applyDatabaseURL string
	applyVerbose     bool
)

func init() {
	applyCmd.Flags().StringVar(&applyConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	applyCmd.Flags().BoolVar(&applyConfirm, "confirm", false, "Record explicit human approval for these submissions")
	applyCmd.Flags().IntVar(&applyConcurrency, "concurrency", 0, "Maximum applications processed in parallel")
	applyCmd.Flags().IntVarP(&applyLimit, "limit", "n", 0, "Stop after this many applications (0 = unlimited)")
	applyCmd.Flags().StringVar(&applyAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	applyCmd.Flags().StringVar(&applyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	applyCmd.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadCLIConfig(applyConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = applyAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = applyDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = applyVerbose
	}
	cfg = finishConfig(cfg)

	rt, err := newRuntime(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if paused, reason, since := rt.orch.Pause().Status(); paused {
		return fmt.Errorf("submissions are paused since %s (%s); run resume-submissions to clear", since.Format("2006-01-02 15:04"), reason)
	}

	ready, err := rt.store.ListApplicationsByStatus(ctx, types.StatusReady)
	if err != nil {
		return fmt.Errorf("failed to list ready applications: %w", err)
	}
	if applyLimit > 0 && len(ready) > applyLimit {
		ready = ready[:applyLimit]
	}
	if len(ready) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing to submit; run analyze first")
		return nil
	}

	jobs := make([]types.JobRecord, 0, len(ready))
	for _, app := range ready {
		job, err := rt.store.GetJobByIdentity(ctx, app.Identity)
		if err != nil {
			return fmt.Errorf("failed to load job for %s at %s: %w", app.Role, app.Company, err)
		}
		if job == nil {
			fmt.Fprintf(os.Stderr, "Skipping %s @ %s: no job record\n", app.Role, app.Company)
			continue
		}
		jobs = append(jobs, *job)
	}

	results, batchErr := rt.orch.ProcessAll(ctx, jobs, applyConcurrency, applyConfirm)

	submitted, denied, failed := 0, 0, 0
	for _, result := range results {
		if result == nil || result.Application == nil {
			continue
		}
		app := result.Application
		switch {
		case result.Confirmation != nil:
			submitted++
			fmt.Fprintf(os.Stdout, "Applied: %s @ %s (%s)\n", app.Role, app.Company, app.ResumeVariant)
		case result.Decision != nil && !result.Decision.Admitted:
			denied++
			fmt.Fprintf(os.Stdout, "Held: %s @ %s\n", app.Role, app.Company)
			rt.printer.PrintGateDecision(*result.Decision)
		case result.Err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "Failed %s @ %s: %v\n", app.Role, app.Company, result.Err)
		}
	}
	fmt.Fprintf(os.Stdout, "Processed %d applications: %d submitted, %d held by the gate, %d failed\n",
		len(results), submitted, denied, failed)

	if batchErr != nil {
		var paused *orchestrator.PausedError
		if errors.As(batchErr, &paused) || rt.orch.Pause().Paused() {
			return fmt.Errorf("submissions paused mid-batch; resolve the challenge and run resume-submissions")
		}
		return batchErr
	}
	return nil
}
