package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// Action categories with rate-limited budgets.
const (
	CategorySubmit = "application_submit"
	CategorySearch = "company_search"
)

// Window caps how many admitted actions may occur inside a rolling span.
type Window struct {
	Limit int           // Maximum admitted actions per span
	Span  time.Duration // Rolling window length
}

// Config maps action categories to their windows. Every window for a
// category must admit an action for the action to proceed.
type Config struct {
	Enabled bool
	Windows map[string][]Window
}

// Ceilings are per-category window limits supplied by the operator's
// configuration. Zero values fall back to the stock ceilings.
type Ceilings struct {
	SubmitHourly int
	SubmitDaily  int
	SearchHourly int
}

// LoadConfig loads rate limiting configuration from environment variables,
// falling back to safe defaults for unattended runs.
func LoadConfig() *Config {
	return LoadConfigWith(Ceilings{})
}

// LoadConfigWith builds the window configuration from the given ceilings.
// RATE_LIMIT_* environment variables override them for operational tuning.
func LoadConfigWith(c Ceilings) *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled: true,
		Windows: map[string][]Window{
			CategorySubmit: {
				{Limit: getEnvInt("RATE_LIMIT_SUBMIT_HOURLY", ceiling(c.SubmitHourly, 5)), Span: time.Hour},
				{Limit: getEnvInt("RATE_LIMIT_SUBMIT_DAILY", ceiling(c.SubmitDaily, 20)), Span: 24 * time.Hour},
			},
			CategorySearch: {
				{Limit: getEnvInt("RATE_LIMIT_SEARCH_HOURLY", ceiling(c.SearchHourly, 30)), Span: time.Hour},
			},
		},
	}
}

func ceiling(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
