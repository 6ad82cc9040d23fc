package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vartija/vartija/audit"
	"github.com/vartija/vartija/config"
	"github.com/vartija/vartija/policy"
	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/report"
	"github.com/vartija/vartija/telemetry"
	"github.com/vartija/vartija/types"
)

// AuditCommand implements 'vartija audit'.
type AuditCommand struct {
	Config *config.Config
	Region string
	Logger *telemetry.Logger
}

// Run collects the IAM account audit and reports findings.
func (cmd *AuditCommand) Run(ctx context.Context) error {
	region := cmd.Region
	if region == "" && len(cmd.Config.Regions) > 0 {
		region = cmd.Config.Regions[0]
	}
	if region == "" {
		region = bootstrapRegion
	}

	provider, err := awsprovider.New(ctx, awsprovider.Options{
		Region:  region,
		Profile: cmd.Config.Profile,
	})
	if err != nil {
		return err
	}

	accountAudit, err := collectAccountAudit(ctx, provider, cmd.Logger)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cmd.Config.Output)
	if err != nil {
		return err
	}
	if err := report.WriteAccountAudit(os.Stdout, format, accountAudit); err != nil {
		return fmt.Errorf("failed to write audit report: %w", err)
	}

	checker := audit.NewChecker(time.Now(), cmd.Config.Scan.MaxKeyAgeDays)
	findings := checker.CheckAccount(accountAudit)

	if cmd.Config.PolicyDir != "" {
		engine := policy.NewEngine(cmd.Logger)
		if err := engine.LoadDir(ctx, cmd.Config.PolicyDir); err != nil {
			return err
		}
		if err := engine.ApplyExemptions(ctx, findings); err != nil {
			return err
		}
	}
	telemetry.CountFindings(ctx, int64(len(findings)))

	if len(findings) > 0 {
		fmt.Fprintln(os.Stdout)
		if err := report.WriteFindings(os.Stdout, format, findings); err != nil {
			return fmt.Errorf("failed to write findings: %w", err)
		}
		report.WriteSeveritySummary(os.Stdout, findings)
	}

	return nil
}

// collectAccountAudit gathers every account posture input. The
// account-wide extras (trails, keys, tables, queues) skip-and-continue
// on error; the IAM core must succeed.
func collectAccountAudit(ctx context.Context, provider *awsprovider.Provider, logger *telemetry.Logger) (types.AccountAudit, error) {
	now := time.Now()

	users, err := provider.CollectIAMUsers(ctx, now)
	if err != nil {
		return types.AccountAudit{}, err
	}

	passwordPolicy, err := provider.GetPasswordPolicy(ctx)
	if err != nil {
		return types.AccountAudit{}, err
	}

	summary, err := provider.GetAccountSummary(ctx)
	if err != nil {
		return types.AccountAudit{}, err
	}

	accountAudit := types.AccountAudit{
		AccountID:      provider.AccountID(),
		Region:         provider.Region(),
		Users:          users,
		PasswordPolicy: passwordPolicy,
		Summary:        summary,
		CollectedAt:    now,
	}

	if trails, err := provider.CollectTrails(ctx); err != nil {
		logger.LogScanError(ctx, provider.Region(), err)
	} else {
		accountAudit.Trails = trails
	}

	if keys, err := provider.CollectKeys(ctx); err != nil {
		logger.LogScanError(ctx, provider.Region(), err)
	} else {
		accountAudit.Keys = keys
	}

	if tables, err := provider.CollectTableBackups(ctx); err != nil {
		logger.LogScanError(ctx, provider.Region(), err)
	} else {
		accountAudit.Tables = tables
	}

	if queues, err := provider.CollectQueues(ctx); err != nil {
		logger.LogScanError(ctx, provider.Region(), err)
	} else {
		accountAudit.Queues = queues
	}

	return accountAudit, nil
}
