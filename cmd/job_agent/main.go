// Package main provides the entry point for the job agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_agent",
	Short: "Job application pipeline",
	Long:  "Job agent discovers postings across company boards, analyzes and tailors a resume for each, and drives gated, rate-limited submissions while tracking every application through its lifecycle.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
