package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values come from environment variables with sensible defaults.
//
// Environment Variables:
// Watch Configuration:
// - PIPELINE_BUCKET: bucket holding job descriptors and run artifacts (required)
// - PIPELINE_JOBS_PREFIX: prefix scanned for new job descriptor objects (default: inputs/jobs)
// - WATCH_CRON_EXPR: cron schedule for the trigger scan (default: every minute)
//
// Pipeline Configuration:
// - POLL_INTERVAL_SECONDS: fixed wait between status polls (default: 5)
// - RUN_TIMEOUT_MINUTES: wall-clock timeout for a whole run (default: 60)
// - MAX_POLL_ATTEMPTS: per-loop attempt cap, 0 = unlimited (default: 0)
// - TRANSLATE_PARTIAL_POLICY: strict | best_effort (default: strict)
//
// System Configuration:
// - AWS_REGION: region for the AWS service clients (default: us-east-1)
// - RUN_DB_PATH: sqlite database for run records (default: /data/runs.db)

type Config struct {
	Watch    WatchConfig    `json:"watch"`
	Pipeline PipelineConfig `json:"pipeline"`
	System   SystemConfig   `json:"system"`
}

// WatchConfig controls the job descriptor trigger scan.
type WatchConfig struct {
	Bucket     string `json:"bucket"`
	JobsPrefix string `json:"jobs_prefix"`
	CronExpr   string `json:"cron_expr"`
}

// PartialPolicy decides how a stage treats a partially failed batch.
type PartialPolicy string

const (
	// PartialPolicyStrict fails the stage on the first failed item.
	PartialPolicyStrict PartialPolicy = "strict"
	// PartialPolicyBestEffort keeps successful items and fails only when none succeed.
	PartialPolicyBestEffort PartialPolicy = "best_effort"
)

// Strict reports whether the policy fails a batch on the first failed item.
func (p PartialPolicy) Strict() bool {
	return p != PartialPolicyBestEffort
}

// PipelineConfig controls poll loops and run-level limits.
type PipelineConfig struct {
	PollInterval           time.Duration `json:"poll_interval"`
	RunTimeout             time.Duration `json:"run_timeout"`
	MaxPollAttempts        int           `json:"max_poll_attempts"`
	TranslatePartialPolicy PartialPolicy `json:"translate_partial_policy"`
}

// SystemConfig holds the system configuration.
type SystemConfig struct {
	AWSRegion string `json:"aws_region"`
	RunDBPath string `json:"run_db_path"`
}

// Option is a function type for configuring Config.
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Watch: WatchConfig{
			Bucket:     getEnvString("PIPELINE_BUCKET", ""),
			JobsPrefix: getEnvString("PIPELINE_JOBS_PREFIX", "inputs/jobs"),
			CronExpr:   getEnvString("WATCH_CRON_EXPR", "* * * * *"),
		},
		Pipeline: PipelineConfig{
			PollInterval:           time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,
			RunTimeout:             time.Duration(getEnvInt("RUN_TIMEOUT_MINUTES", 60)) * time.Minute,
			MaxPollAttempts:        getEnvInt("MAX_POLL_ATTEMPTS", 0),
			TranslatePartialPolicy: PartialPolicy(getEnvString("TRANSLATE_PARTIAL_POLICY", string(PartialPolicyStrict))),
		},
		System: SystemConfig{
			AWSRegion: getEnvString("AWS_REGION", "us-east-1"),
			RunDBPath: getEnvString("RUN_DB_PATH", "/data/runs.db"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Watch.Bucket == "" {
		return fmt.Errorf("PIPELINE_BUCKET is required")
	}
	switch c.Pipeline.TranslatePartialPolicy {
	case PartialPolicyStrict, PartialPolicyBestEffort:
	default:
		return fmt.Errorf("TRANSLATE_PARTIAL_POLICY must be %q or %q, got %q",
			PartialPolicyStrict, PartialPolicyBestEffort, c.Pipeline.TranslatePartialPolicy)
	}
	if c.Pipeline.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if c.Pipeline.RunTimeout <= 0 {
		return fmt.Errorf("RUN_TIMEOUT_MINUTES must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
