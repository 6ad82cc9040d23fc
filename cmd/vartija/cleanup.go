package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vartija/vartija/auditlog"
	"github.com/vartija/vartija/config"
	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/report"
	"github.com/vartija/vartija/telemetry"
	"github.com/vartija/vartija/types"
)

// CleanupCommand implements 'vartija cleanup'.
type CleanupCommand struct {
	Config *config.Config
	Logger *telemetry.Logger
	Log    *auditlog.Log

	// Targets toggles each cleanup class.
	Images    bool
	Snapshots bool
	EIPs      bool
	Zones     bool
}

// Run finds and (outside dry-run) removes aged AMIs and snapshots,
// unassociated Elastic IPs, and empty Route 53 zones. Resources
// tagged vartija:keep are never touched.
func (cmd *CleanupCommand) Run(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -cmd.Config.Scan.AgeDays)
	dryRun := cmd.Config.Actions.DryRun

	regions, err := resolveRegions(ctx, cmd.Config)
	if err != nil {
		return fmt.Errorf("failed to resolve regions: %w", err)
	}

	var candidates []types.Resource
	removed := 0
	for i, region := range regions {
		provider, err := awsprovider.New(ctx, awsprovider.Options{
			Region:  region,
			Profile: cmd.Config.Profile,
		})
		if err != nil {
			cmd.Logger.LogScanError(ctx, region, err)
			continue
		}

		found, n := cmd.cleanupRegion(ctx, provider, cutoff, dryRun, i == 0)
		candidates = append(candidates, found...)
		removed += n
	}

	format, err := report.ParseFormat(cmd.Config.Output)
	if err != nil {
		return err
	}
	if err := report.WriteResources(os.Stdout, format, candidates); err != nil {
		return fmt.Errorf("failed to write cleanup report: %w", err)
	}

	verb := "removed"
	if dryRun {
		verb = "would remove"
	}
	fmt.Fprintf(os.Stdout, "\nCleanup: %s %d of %d candidates (age limit %d days)\n",
		verb, removed, len(candidates), cmd.Config.Scan.AgeDays)
	return nil
}

// cleanupRegion runs the enabled cleanup classes for one region.
// Zones are global, so they run only on the first region.
func (cmd *CleanupCommand) cleanupRegion(ctx context.Context, provider *awsprovider.Provider, cutoff time.Time, dryRun, includeGlobal bool) ([]types.Resource, int) {
	var candidates []types.Resource
	removed := 0

	if cmd.Images {
		images, err := provider.ListOldAMIs(ctx, cutoff)
		if err != nil {
			cmd.Logger.LogScanError(ctx, provider.Region(), err)
		} else {
			candidates = append(candidates, images...)
			removed += cmd.removeImages(ctx, provider, images, dryRun)
		}
	}

	if cmd.Snapshots {
		snapshots, err := provider.ListOldSnapshots(ctx, cutoff)
		if err != nil {
			cmd.Logger.LogScanError(ctx, provider.Region(), err)
		} else {
			candidates = append(candidates, snapshots...)
			n, _ := cmd.removeEach(ctx, provider.Region(), snapshots, dryRun, auditlog.ActionDeleteSnapshot,
				func(r types.Resource) error { return provider.DeleteSnapshot(ctx, r.ID) })
			removed += n
		}
	}

	if cmd.EIPs {
		eips, err := provider.ListElasticIPs(ctx)
		if err != nil {
			cmd.Logger.LogScanError(ctx, provider.Region(), err)
		} else {
			unassociated := filterState(eips, "unassociated")
			candidates = append(candidates, unassociated...)
			n, _ := cmd.removeEach(ctx, provider.Region(), unassociated, dryRun, auditlog.ActionReleaseEIP,
				func(r types.Resource) error { return provider.ReleaseElasticIP(ctx, r.ID) })
			removed += n
		}
	}

	if cmd.Zones && includeGlobal {
		zones, err := provider.ListEmptyHostedZones(ctx)
		if err != nil {
			cmd.Logger.LogScanError(ctx, provider.Region(), err)
		} else {
			candidates = append(candidates, zones...)
			n, _ := cmd.removeEach(ctx, provider.Region(), zones, dryRun, auditlog.ActionDeleteZone,
				func(r types.Resource) error { return provider.DeleteHostedZone(ctx, r.ID) })
			removed += n
		}
	}

	return candidates, removed
}

// removeImages deregisters AMIs and then deletes the backing
// snapshots of the images whose deregister succeeded.
func (cmd *CleanupCommand) removeImages(ctx context.Context, provider *awsprovider.Provider, images []types.Resource, dryRun bool) int {
	removed, deregistered := cmd.removeEach(ctx, provider.Region(), images, dryRun, auditlog.ActionDeregisterAMI,
		func(r types.Resource) error { return provider.DeregisterAMI(ctx, r.ID) })

	if dryRun {
		return removed
	}

	cmd.removeBackingSnapshots(ctx, provider.Region(), deregistered,
		func(snapshotID string) error { return provider.DeleteSnapshot(ctx, snapshotID) })
	return removed
}

// removeBackingSnapshots deletes the snapshots behind each
// deregistered image, one by one so an in-use snapshot does not block
// the rest.
func (cmd *CleanupCommand) removeBackingSnapshots(ctx context.Context, region string, images []types.Resource, deleteSnapshot func(string) error) {
	for _, image := range images {
		if image.Info.SnapshotIDs == "" {
			continue
		}
		for _, snapshotID := range strings.Split(image.Info.SnapshotIDs, ",") {
			cmd.Logger.LogAction(ctx, string(auditlog.ActionDeleteSnapshot), snapshotID, false)
			if err := deleteSnapshot(snapshotID); err != nil {
				cmd.Logger.LogActionError(ctx, string(auditlog.ActionDeleteSnapshot), snapshotID, err)
				_ = cmd.Log.RecordError(auditlog.ActionDeleteSnapshot, region, snapshotID, nil, err)
				continue
			}
			telemetry.CountActionExecuted(ctx)
			_ = cmd.Log.Record(auditlog.ActionDeleteSnapshot, auditlog.OutcomeExecuted, region, snapshotID, nil)
		}
	}
}

// removeEach applies one remover per resource, honoring keep tags and
// dry-run, logging every attempt. removed counts executed removals
// plus dry-run intents; executed holds only the resources actually
// removed.
func (cmd *CleanupCommand) removeEach(ctx context.Context, region string, resources []types.Resource, dryRun bool, action auditlog.Action, remove func(types.Resource) error) (int, []types.Resource) {
	removed := 0
	var executed []types.Resource
	for _, resource := range resources {
		if resource.Tags.IsKept() {
			_ = cmd.Log.Record(action, auditlog.OutcomeSkipped, region, resource.ID, map[string]string{"reason": "vartija:keep"})
			continue
		}

		cmd.Logger.LogAction(ctx, string(action), resource.ID, dryRun)

		if dryRun {
			telemetry.CountActionSkipped(ctx)
			_ = cmd.Log.Record(action, auditlog.OutcomeDryRun, region, resource.ID, resource)
			removed++
			continue
		}

		if err := remove(resource); err != nil {
			cmd.Logger.LogActionError(ctx, string(action), resource.ID, err)
			_ = cmd.Log.RecordError(action, region, resource.ID, resource, err)
			continue
		}

		telemetry.CountActionExecuted(ctx)
		_ = cmd.Log.Record(action, auditlog.OutcomeExecuted, region, resource.ID, resource)
		executed = append(executed, resource)
		removed++
	}
	return removed, executed
}

func filterState(resources []types.Resource, state string) []types.Resource {
	var filtered []types.Resource
	for _, r := range resources {
		if r.State == state {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
