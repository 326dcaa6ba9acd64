package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/orchestrator"
	"github.com/jonathan/job-agent/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pipeline and application funnel",
	Long:  "Print application counts per lifecycle status, submission analytics, and optionally the records at one status. With --mark-stale, applied records with no response past the follow-up threshold move to follow_up_pending.",
	RunE:  runStatus,
}

var (
	statusConfigPath  string
	statusFilter      string
	statusMarkStale   bool
	statusDatabaseURL string
)

func init() {
	statusCmd.Flags().StringVar(&statusConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	statusCmd.Flags().StringVarP(&statusFilter, "status", "s", "", "List the applications at this status")
	statusCmd.Flags().BoolVar(&statusMarkStale, "mark-stale", false, "Move unanswered applied records past the follow-up threshold to follow_up_pending")
	statusCmd.Flags().StringVar(&statusDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadCLIConfig(statusConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = statusDatabaseURL
	}
	cfg = finishConfig(cfg)

	store, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if statusMarkStale {
		orch := orchestrator.New(orchestrator.Options{Store: store})
		moved, err := orch.MarkStaleApplications(ctx, followUpThreshold(cfg))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Flagged %d applications for follow-up (no response for %dd)\n", moved, cfg.FollowUpDays)
	}

	stats, err := store.PipelineStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pipeline stats: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintPipelineStats(stats)

	var all []*types.ApplicationRecord
	for _, status := range types.AllStatuses {
		apps, err := store.ListApplicationsByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to list %s applications: %w", status, err)
		}
		all = append(all, apps...)
	}
	printer.PrintFunnel(all)

	if statusFilter != "" {
		status := types.Status(statusFilter)
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", statusFilter)
		}
		apps, err := store.ListApplicationsByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to list %s applications: %w", status, err)
		}
		if len(apps) == 0 {
			fmt.Fprintf(os.Stdout, "No applications at %s\n", status)
			return nil
		}
		printer.PrintApplications(apps)
	}

	if pause := orchestrator.NewFilePauseController(pauseStatePath(cfg)); pause.Paused() {
		_, reason, since := pause.Status()
		fmt.Fprintf(os.Stdout, "Submissions are PAUSED since %s: %s\n", since.Format("2006-01-02 15:04"), reason)
	}
	return nil
}
