package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vartija/vartija/config"
	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/report"
	"github.com/vartija/vartija/telemetry"
)

// FindingsCommand implements 'vartija findings'.
type FindingsCommand struct {
	Config  *config.Config
	Region  string
	Filter  awsprovider.FindingsFilter
	OutPath string
	Logger  *telemetry.Logger
}

// Run exports Security Hub findings as a JSON document with a
// metadata header, then prints a summary.
func (cmd *FindingsCommand) Run(ctx context.Context) error {
	region := cmd.Region
	if region == "" {
		if len(cmd.Config.Regions) > 0 {
			region = cmd.Config.Regions[0]
		} else {
			region = bootstrapRegion
		}
	}

	provider, err := awsprovider.New(ctx, awsprovider.Options{
		Region:  region,
		Profile: cmd.Config.Profile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize provider for %s: %w", region, err)
	}

	findings, err := provider.GetSecurityHubFindings(ctx, cmd.Filter)
	if err != nil {
		return err
	}
	telemetry.CountFindings(ctx, int64(len(findings)))

	export := report.BuildSecurityHubExport(region, provider.AccountID(), findings, time.Now())

	out := os.Stdout
	summary := os.Stdout
	if cmd.OutPath != "" {
		file, err := os.Create(cmd.OutPath) // #nosec G304 -- path is intentional user input
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() { _ = file.Close() }()
		out = file
	} else {
		// Keep stdout clean for the JSON document.
		summary = os.Stderr
	}

	if err := report.WriteSecurityHubExport(out, export); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if cmd.OutPath != "" {
		cmd.Logger.Info().
			Str("path", cmd.OutPath).
			Int("findings", len(findings)).
			Msg("wrote Security Hub export")
	}

	report.WriteSecurityHubSummary(summary, export, 5)
	return nil
}
