// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Targets  string `json:"targets,omitempty"`  // Path to targets YAML (tiers, exclusions, bad words)
	Profile  string `json:"profile,omitempty"`  // Path to operator profile JSON (skills, defaults)
	Answers  string `json:"answers,omitempty"`  // Path to application answers JSON
	Resumes  string `json:"resumes,omitempty"`  // Directory holding generated resume variants
	Template string `json:"template,omitempty"` // Base resume handed to the tailor

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Locale      string `json:"locale,omitempty"`       // Targets locale override
	UseBrowser  bool   `json:"use_browser,omitempty"`  // Drive a headless browser for submissions
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information

	// Thresholds
	ATSFloor       float64 `json:"ats_floor,omitempty" validate:"gte=0,lte=100"`        // Minimum ATS score to submit
	MatchFloor     float64 `json:"match_floor,omitempty" validate:"gte=0,lte=100"`      // Minimum match score to submit
	AutoApplyFloor float64 `json:"auto_apply_floor,omitempty" validate:"gte=0,lte=100"` // ATS score for unattended submission
	MaxAttempts    int     `json:"max_attempts,omitempty" validate:"gte=0,lte=10"`      // Retry budget per operation
	SubmitTimeout  int     `json:"submit_timeout,omitempty" validate:"gte=0"`           // Seconds allowed per browser submission

	// Rate limit ceilings per rolling window. Zero keeps the stock ceiling;
	// RATE_LIMIT_* environment variables override either.
	SubmitHourlyLimit int `json:"submit_hourly_limit,omitempty" validate:"gte=0"` // Submissions per hour
	SubmitDailyLimit  int `json:"submit_daily_limit,omitempty" validate:"gte=0"`  // Submissions per day
	SearchHourlyLimit int `json:"search_hourly_limit,omitempty" validate:"gte=0"` // Board searches per hour

	// FollowUpDays is how long an application may sit at applied with no
	// response before it is flagged for follow-up.
	FollowUpDays int `json:"follow_up_days,omitempty" validate:"gte=0"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.AutoApplyFloor != 0 && c.AutoApplyFloor < c.ATSFloor {
		return fmt.Errorf("config error: 'auto_apply_floor' must not be below 'ats_floor'")
	}

	// Validate file paths exist (if specified)
	if c.Targets != "" {
		if _, err := os.Stat(c.Targets); os.IsNotExist(err) {
			return fmt.Errorf("config error: targets file not found: %s", c.Targets)
		}
	}
	if c.Profile != "" {
		if _, err := os.Stat(c.Profile); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.Profile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Targets == "" {
		result.Targets = defaults.Targets
	}
	if result.Profile == "" {
		result.Profile = defaults.Profile
	}
	if result.Answers == "" {
		result.Answers = defaults.Answers
	}
	if result.Resumes == "" {
		result.Resumes = defaults.Resumes
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Locale == "" {
		result.Locale = defaults.Locale
	}

	// Numeric fields: use default if zero, with built-in fallbacks
	if result.ATSFloor == 0 {
		result.ATSFloor = defaultFloat(defaults.ATSFloor, 80)
	}
	if result.MatchFloor == 0 {
		result.MatchFloor = defaultFloat(defaults.MatchFloor, 70)
	}
	if result.AutoApplyFloor == 0 {
		result.AutoApplyFloor = defaultFloat(defaults.AutoApplyFloor, 85)
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaultInt(defaults.MaxAttempts, 3)
	}
	if result.SubmitTimeout == 0 {
		result.SubmitTimeout = defaultInt(defaults.SubmitTimeout, 90)
	}
	if result.FollowUpDays == 0 {
		result.FollowUpDays = defaultInt(defaults.FollowUpDays, 14)
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func defaultFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func defaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
