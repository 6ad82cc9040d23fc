package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Actions.DryRun, "dry-run must be the default")
	assert.Equal(t, "ALL", cfg.Actions.TrafficType)
	assert.Equal(t, int32(14), cfg.Actions.RetentionDays)
	assert.Equal(t, 90, cfg.Scan.AgeDays)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, time.Hour, cfg.Daemon.Interval)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vartija.yaml")
	content := `version: "1"
regions:
  - eu-west-1
  - eu-north-1
output: csv
scan:
  age_days: 180
actions:
  dry_run: false
  traffic_type: REJECT
  role_arn: arn:aws:iam::123456789012:role/flowlogs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"eu-west-1", "eu-north-1"}, cfg.Regions)
	assert.Equal(t, "csv", cfg.Output)
	assert.Equal(t, 180, cfg.Scan.AgeDays)
	assert.False(t, cfg.Actions.DryRun)
	assert.Equal(t, "REJECT", cfg.Actions.TrafficType)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Run("environment fallbacks", func(t *testing.T) {
		t.Setenv("ROLE_ARN", "arn:aws:iam::123456789012:role/env-role")
		t.Setenv("TRAFFIC_TYPE", "ACCEPT")
		t.Setenv("DRY_RUN", "false")
		t.Setenv("AGE_DAYS", "30")

		cfg := Default()
		cfg.ApplyEnv()

		assert.Equal(t, "arn:aws:iam::123456789012:role/env-role", cfg.Actions.RoleARN)
		assert.Equal(t, "ACCEPT", cfg.Actions.TrafficType)
		assert.False(t, cfg.Actions.DryRun)
		assert.Equal(t, 30, cfg.Scan.AgeDays)
		assert.Equal(t, 30, cfg.Scan.MaxKeyAgeDays)
	})

	t.Run("explicit role wins over env", func(t *testing.T) {
		t.Setenv("ROLE_ARN", "arn:aws:iam::123456789012:role/env-role")

		cfg := Default()
		cfg.Actions.RoleARN = "arn:aws:iam::123456789012:role/explicit"
		cfg.ApplyEnv()

		assert.Equal(t, "arn:aws:iam::123456789012:role/explicit", cfg.Actions.RoleARN)
	})

	t.Run("DRY_RUN accepts 1", func(t *testing.T) {
		t.Setenv("DRY_RUN", "1")

		cfg := Default()
		cfg.Actions.DryRun = false
		cfg.ApplyEnv()

		assert.True(t, cfg.Actions.DryRun)
	})

	t.Run("bad AGE_DAYS is ignored", func(t *testing.T) {
		t.Setenv("AGE_DAYS", "soon")

		cfg := Default()
		cfg.ApplyEnv()

		assert.Equal(t, 90, cfg.Scan.AgeDays)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: true,
		},
		{
			name:    "bad output format",
			mutate:  func(c *Config) { c.Output = "xml" },
			wantErr: true,
		},
		{
			name:    "bad traffic type",
			mutate:  func(c *Config) { c.Actions.TrafficType = "SOME" },
			wantErr: true,
		},
		{
			name:    "negative age",
			mutate:  func(c *Config) { c.Scan.AgeDays = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
