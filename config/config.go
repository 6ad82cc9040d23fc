package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither config file, flag, nor environment
// sets a value.
const (
	DefaultAgeDays       = 90
	DefaultTrafficType   = "ALL"
	DefaultRetentionDays = 14
	DefaultOutput        = "table"
	DefaultStorePath     = ".vartija/history.db"
	DefaultAuditLogPath  = ".vartija/actions.jsonl"
)

// Config represents the main configuration
type Config struct {
	Version   string   `yaml:"version"`
	Regions   []string `yaml:"regions,omitempty"`
	Profile   string   `yaml:"profile,omitempty"`
	Output    string   `yaml:"output,omitempty"`
	PolicyDir string   `yaml:"policy_dir,omitempty"`
	StorePath string   `yaml:"store_path,omitempty"`
	AuditLog  string   `yaml:"audit_log,omitempty"`
	Scan      Scan     `yaml:"scan,omitempty"`
	Actions   Actions  `yaml:"actions,omitempty"`
	Daemon    Daemon   `yaml:"daemon,omitempty"`
}

// Scan tunes the inventory and audit thresholds.
type Scan struct {
	AgeDays       int  `yaml:"age_days"`
	AllRegions    bool `yaml:"all_regions"`
	IncludeEmpty  bool `yaml:"include_empty"`
	MaxKeyAgeDays int  `yaml:"max_key_age_days"`
}

// Actions gates the mutating commands.
type Actions struct {
	DryRun        bool   `yaml:"dry_run"`
	RoleARN       string `yaml:"role_arn,omitempty"`
	TrafficType   string `yaml:"traffic_type,omitempty"`
	RetentionDays int32  `yaml:"retention_days,omitempty"`
}

// Daemon configures continuous mode.
type Daemon struct {
	Interval    time.Duration `yaml:"interval"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version:   "1",
		Output:    DefaultOutput,
		StorePath: DefaultStorePath,
		AuditLog:  DefaultAuditLogPath,
		Scan: Scan{
			AgeDays:       DefaultAgeDays,
			MaxKeyAgeDays: DefaultAgeDays,
		},
		Actions: Actions{
			DryRun:        true,
			TrafficType:   DefaultTrafficType,
			RetentionDays: DefaultRetentionDays,
		},
		Daemon: Daemon{
			Interval:    time.Hour,
			MetricsAddr: ":9090",
		},
	}
}

// LoadConfig loads configuration from file, layering it over defaults
// and the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv honors the environment variables the original shell
// tooling used, as fallbacks under explicit configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ROLE_ARN"); v != "" && c.Actions.RoleARN == "" {
		c.Actions.RoleARN = v
	}
	if v := os.Getenv("TRAFFIC_TYPE"); v != "" {
		c.Actions.TrafficType = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		c.Actions.DryRun = v == "true" || v == "1"
	}
	if v := os.Getenv("AGE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Scan.AgeDays = days
			c.Scan.MaxKeyAgeDays = days
		}
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	switch c.Output {
	case "table", "csv", "json":
	default:
		return fmt.Errorf("output must be table, csv, or json, got %q", c.Output)
	}
	switch c.Actions.TrafficType {
	case "ALL", "ACCEPT", "REJECT":
	default:
		return fmt.Errorf("traffic_type must be ALL, ACCEPT, or REJECT, got %q", c.Actions.TrafficType)
	}
	if c.Scan.AgeDays < 0 {
		return fmt.Errorf("age_days must not be negative")
	}
	return nil
}
