package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/discovery"
	"github.com/jonathan/job-agent/internal/identity"
	"github.com/jonathan/job-agent/internal/ratelimit"
	"github.com/jonathan/job-agent/internal/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search company job boards for new postings",
	Long:  "Search the configured company boards for postings matching the targeting criteria, deduplicate them against the tracked set, and store new records at discovered.",
	RunE:  runDiscover,
}

var (
	discoverConfigPath   string
	discoverTargetsPath  string
	discoverLocale       string
	discoverTerm         string
	discoverLocation     string
	discoverRemote       bool
	discoverResults      int
	discoverCompanies    []string
	discoverDescriptions bool
	discoverUseBrowser   bool
	discoverDatabaseURL  string
	discoverVerbose      bool
)

func init() {
	discoverCmd.Flags().StringVar(&discoverConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	discoverCmd.Flags().StringVar(&discoverTargetsPath, "targets", "", "Path to targets YAML (tiers, exclusions, bad words)")
	discoverCmd.Flags().StringVar(&discoverLocale, "locale", "", "Targets locale override")
	discoverCmd.Flags().StringVarP(&discoverTerm, "term", "q", "", "Search term to match against titles")
	discoverCmd.Flags().StringVarP(&discoverLocation, "location", "l", "", "Location to match against postings")
	discoverCmd.Flags().BoolVar(&discoverRemote, "remote", false, "Only keep remote postings")
	discoverCmd.Flags().IntVarP(&discoverResults, "results", "n", 0, "Stop after this many postings (0 = unlimited)")
	discoverCmd.Flags().StringSliceVar(&discoverCompanies, "companies", nil, "Companies to search (defaults to the targets tiers)")
	discoverCmd.Flags().BoolVar(&discoverDescriptions, "descriptions", false, "Follow each posting link and extract the description (slower)")
	discoverCmd.Flags().BoolVar(&discoverUseBrowser, "use-browser", false, "Render JS-heavy posting pages in a headless browser (requires Chrome)")
	discoverCmd.Flags().StringVar(&discoverDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	discoverCmd.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadCLIConfig(discoverConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("targets") {
		cfg.Targets = discoverTargetsPath
	}
	if cmd.Flags().Changed("locale") {
		cfg.Locale = discoverLocale
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = discoverDatabaseURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = discoverUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = discoverVerbose
	}
	cfg = finishConfig(cfg)

	targets, err := maybeLoadTargets(cfg)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	// Searches consume their own budget so unattended runs cannot hammer
	// the boards.
	limiter := ratelimit.NewLimiter(store, limiterConfig(cfg))
	admit, err := limiter.Allow(ctx, ratelimit.CategorySearch)
	if err != nil {
		return fmt.Errorf("failed to check search budget: %w", err)
	}
	if !admit.Allowed {
		return fmt.Errorf("search rate limit reached, retry after %s", admit.RetryAfter.Round(time.Second))
	}

	criteria := discovery.Criteria{
		Term:          discoverTerm,
		Location:      discoverLocation,
		Remote:        discoverRemote,
		ResultsWanted: discoverResults,
		Companies:     discoverCompanies,
	}
	if targets != nil {
		if criteria.Location == "" && len(targets.SearchParams.Locations) > 0 {
			criteria.Location = targets.SearchParams.Locations[0]
		}
		criteria.Country = targets.SearchParams.Country
		if len(criteria.Companies) == 0 {
			criteria.Companies = tierCompanies(targets)
		}
	}
	if len(criteria.Companies) == 0 {
		return fmt.Errorf("no companies to search: provide --companies or a targets file with tiers")
	}

	greenhouse := discovery.NewGreenhouse(nil)
	greenhouse.FetchDescriptions = discoverDescriptions
	greenhouse.UseBrowser = cfg.UseBrowser
	searcher := discovery.Multi{greenhouse}

	raw, err := searcher.Search(ctx, criteria)
	if err != nil {
		return err
	}
	raw = discovery.Dedupe(raw)
	jobs := discovery.ApplyTargetsFilter(raw, targets)

	now := time.Now().UTC()
	fresh, known := 0, 0
	for _, rawJob := range jobs {
		id := identity.Compute(rawJob)
		existing, err := store.GetJobByIdentity(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to look up job: %w", err)
		}

		record := rawJob.Record(now)
		record.Identity = id
		stored, err := store.PutJob(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to store job: %w", err)
		}
		if _, err := store.CreateApplication(ctx, types.NewApplication(*stored, now)); err != nil {
			var dup *db.DuplicateIdentityError
			if !errors.As(err, &dup) {
				return fmt.Errorf("failed to create application: %w", err)
			}
		}

		if existing != nil {
			known++
			continue
		}
		fresh++
		fmt.Fprintf(os.Stdout, "  %s @ %s (%s) [%s/%s]\n",
			stored.Title, stored.Company, stored.Location, rawJob.TargetTier, rawJob.RoleMatch)
	}

	fmt.Fprintf(os.Stdout, "Discovered %d postings: %d new, %d already tracked\n", len(jobs), fresh, known)
	return nil
}

// tierCompanies lists the targets' companies best-first.
func tierCompanies(targets *config.Targets) []string {
	type entry struct {
		name     string
		priority int
	}
	var entries []entry
	for _, tierName := range []string{"tier1", "tier2", "tier3"} {
		for _, company := range targets.Tiers[tierName].Companies {
			priority := company.Priority
			if priority == 0 {
				priority = 3
			}
			entries = append(entries, entry{name: company.Name, priority: priority})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].priority < entries[j].priority })

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}
