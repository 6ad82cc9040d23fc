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
	"github.com/vartija/vartija/storage"
	"github.com/vartija/vartija/telemetry"
	"github.com/vartija/vartija/types"
)

// bootstrapRegion is used to resolve the region list when none is
// configured.
const bootstrapRegion = "us-east-1"

// ScanCommand implements 'vartija scan'.
type ScanCommand struct {
	Config *config.Config
	Types  []string
	Logger *telemetry.Logger
}

// Run executes the scan: inventory, history diff, posture findings.
func (cmd *ScanCommand) Run(ctx context.Context) error {
	resources, err := collectInventory(ctx, cmd.Config, cmd.Logger, types.ResourceFilter{Types: cmd.Types})
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cmd.Config.Output)
	if err != nil {
		return err
	}
	if err := report.WriteResources(os.Stdout, format, resources); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}

	findings, err := inventoryFindings(ctx, cmd.Config, cmd.Logger, resources)
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		fmt.Fprintln(os.Stdout)
		if err := report.WriteFindings(os.Stdout, format, findings); err != nil {
			return fmt.Errorf("failed to write findings: %w", err)
		}
		report.WriteSeveritySummary(os.Stdout, findings)
	}

	return recordAndDiff(cmd.Config, cmd.Logger, resources)
}

// resolveRegions returns the configured regions, or every region
// enabled for the account.
func resolveRegions(ctx context.Context, cfg *config.Config) ([]string, error) {
	if len(cfg.Regions) > 0 {
		return cfg.Regions, nil
	}

	bootstrap, err := awsprovider.New(ctx, awsprovider.Options{
		Region:  bootstrapRegion,
		Profile: cfg.Profile,
	})
	if err != nil {
		return nil, err
	}
	return bootstrap.ListRegions(ctx)
}

// collectInventory scans every selected region for public surfaces.
// Per-region failures are logged and skipped; only credential and
// configuration problems abort the run.
func collectInventory(ctx context.Context, cfg *config.Config, logger *telemetry.Logger, filter types.ResourceFilter) ([]types.Resource, error) {
	regions, err := resolveRegions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve regions: %w", err)
	}

	var all []types.Resource
	for i, region := range regions {
		start := time.Now()
		logger.LogScanStart(ctx, region, filter.Types)

		provider, err := awsprovider.New(ctx, awsprovider.Options{
			Region:  region,
			Profile: cfg.Profile,
		})
		if err != nil {
			logger.LogScanError(ctx, region, err)
			continue
		}

		resources := scanRegion(ctx, provider, logger, filter, i == 0)
		all = append(all, resources...)

		telemetry.CountResourcesScanned(ctx, int64(len(resources)))
		telemetry.ObserveScanDuration(ctx, time.Since(start).Seconds())
		logger.LogScanComplete(ctx, region, len(resources), float64(time.Since(start).Milliseconds()))
	}

	return all, nil
}

// scanRegion runs every exposure scanner against one region.
// includeGlobal pulls in the global-namespace services (S3) exactly
// once per run.
func scanRegion(ctx context.Context, provider *awsprovider.Provider, logger *telemetry.Logger, filter types.ResourceFilter, includeGlobal bool) []types.Resource {
	type scanner struct {
		resourceType string
		list         func(context.Context) ([]types.Resource, error)
	}

	scanners := []scanner{
		{types.TypeInstance, provider.ListPublicInstances},
		{types.TypeElasticIP, provider.ListElasticIPs},
		{types.TypeNATGateway, provider.ListNATGateways},
		{types.TypeLoadBalancer, provider.ListPublicLoadBalancers},
		{types.TypeRDSInstance, provider.ListPublicRDSInstances},
		{types.TypeRedshift, provider.ListPublicRedshiftClusters},
		{types.TypeEKSCluster, provider.ListPublicEKSClusters},
		{types.TypeFunctionURL, provider.ListPublicFunctionURLs},
	}
	if includeGlobal {
		scanners = append(scanners, scanner{types.TypeBucket, provider.ListExposedBuckets})
	}

	vpcNames, err := provider.VPCNames(ctx)
	if err != nil {
		logger.LogScanError(ctx, provider.Region(), err)
		vpcNames = map[string]string{}
	}

	var resources []types.Resource
	for _, s := range scanners {
		if !filter.MatchesType(s.resourceType) {
			continue
		}

		found, err := s.list(ctx)
		if err != nil {
			logger.LogScanError(ctx, provider.Region(), err)
			continue
		}

		for i := range found {
			if name, ok := vpcNames[found[i].VpcID]; ok && found[i].VpcName == "" {
				found[i].VpcName = name
			}
		}
		resources = append(resources, found...)
	}

	return resources
}

// inventoryFindings runs the posture checks and applies policy
// exemptions.
func inventoryFindings(ctx context.Context, cfg *config.Config, logger *telemetry.Logger, resources []types.Resource) ([]types.Finding, error) {
	checker := audit.NewChecker(time.Now(), cfg.Scan.MaxKeyAgeDays)
	findings := checker.CheckInventory(resources)

	if cfg.PolicyDir != "" {
		engine := policy.NewEngine(logger)
		if err := engine.LoadDir(ctx, cfg.PolicyDir); err != nil {
			return nil, err
		}
		if err := engine.ApplyExemptions(ctx, findings); err != nil {
			return nil, err
		}
	}

	telemetry.CountFindings(ctx, int64(len(findings)))
	return findings, nil
}

// recordScanQuiet stores the scan in history without writing to
// stdout; changes go to the structured log. Used by the daemon.
func recordScanQuiet(cfg *config.Config, logger *telemetry.Logger, resources []types.Resource) error {
	history, err := storage.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = history.Close() }()

	prevRev := history.CurrentRevision()
	rev, err := history.RecordScan(resources)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	telemetry.RecordStorageRevision(context.Background(), rev)
	telemetry.RecordExposures(context.Background(), int64(len(resources)))

	if prevRev == 0 {
		return nil
	}

	diff, err := history.DiffRevisions(prevRev, rev)
	if err != nil {
		return fmt.Errorf("failed to diff scans: %w", err)
	}
	if len(diff.New) > 0 || len(diff.Resolved) > 0 {
		logger.Info().
			Int("new", len(diff.New)).
			Int("resolved", len(diff.Resolved)).
			Int64("revision", rev).
			Msg("exposure changes since previous scan")
	}
	return nil
}

// recordAndDiff stores the scan in history and reports what changed
// since the previous run.
func recordAndDiff(cfg *config.Config, logger *telemetry.Logger, resources []types.Resource) error {
	history, err := storage.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = history.Close() }()

	prevRev := history.CurrentRevision()
	rev, err := history.RecordScan(resources)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	telemetry.RecordStorageRevision(context.Background(), rev)
	telemetry.RecordExposures(context.Background(), int64(len(resources)))

	if prevRev == 0 {
		fmt.Fprintln(os.Stdout, "\nFirst scan - baseline established")
		return nil
	}

	diff, err := history.DiffRevisions(prevRev, rev)
	if err != nil {
		return fmt.Errorf("failed to diff scans: %w", err)
	}

	if len(diff.New) == 0 && len(diff.Resolved) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo exposure changes since previous scan")
		return nil
	}

	fmt.Fprintln(os.Stdout, "\nChanges since previous scan:")
	for _, r := range diff.New {
		fmt.Fprintf(os.Stdout, "  + %s %s (%s)\n", r.Type, r.ID, r.Region)
	}
	for _, r := range diff.Resolved {
		fmt.Fprintf(os.Stdout, "  - %s %s (%s)\n", r.Type, r.ID, r.Region)
	}
	return nil
}
