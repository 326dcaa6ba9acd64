package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/orchestrator"
)

var resumeSubmissionsCmd = &cobra.Command{
	Use:   "resume-submissions",
	Short: "Clear a submission pause",
	Long:  "Clear the submission halt left behind by a captcha or expired session. Run this only after resolving the challenge manually.",
	RunE:  runResumeSubmissions,
}

var resumeConfigPath string

func init() {
	resumeSubmissionsCmd.Flags().StringVar(&resumeConfigPath, "config", "", "Path to config.json file")

	rootCmd.AddCommand(resumeSubmissionsCmd)
}

func runResumeSubmissions(_ *cobra.Command, _ []string) error {
	cfg, err := loadCLIConfig(resumeConfigPath)
	if err != nil {
		return err
	}
	cfg = finishConfig(cfg)

	pause := orchestrator.NewFilePauseController(pauseStatePath(cfg))
	if !pause.Paused() {
		fmt.Fprintln(os.Stdout, "Submissions are not paused")
		return nil
	}

	_, reason, since := pause.Status()
	pause.Resume()
	fmt.Fprintf(os.Stdout, "Cleared pause from %s (%s); submissions may proceed\n",
		since.Format("2006-01-02 15:04"), reason)
	return nil
}
