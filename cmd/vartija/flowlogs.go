package main

import (
	"context"
	"fmt"
	"os"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/vartija/vartija/auditlog"
	"github.com/vartija/vartija/config"
	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/telemetry"
)

// FlowLogsCommand implements 'vartija flowlogs'.
type FlowLogsCommand struct {
	Config *config.Config
	Logger *telemetry.Logger
	Log    *auditlog.Log
}

// flowLogDetail is what gets recorded in the action log per VPC.
type flowLogDetail struct {
	VpcID       string `json:"vpc_id"`
	LogGroup    string `json:"log_group"`
	TrafficType string `json:"traffic_type"`
	FlowLogID   string `json:"flow_log_id,omitempty"`
}

// Run enables flow logs on every VPC that lacks one. Re-runs are
// idempotent: VPCs with an active flow log are skipped.
func (cmd *FlowLogsCommand) Run(ctx context.Context) error {
	dryRun := cmd.Config.Actions.DryRun

	if !dryRun && cmd.Config.Actions.RoleARN == "" {
		return fmt.Errorf("flow log delivery role required: set --role-arn or ROLE_ARN")
	}

	regions, err := resolveRegions(ctx, cmd.Config)
	if err != nil {
		return fmt.Errorf("failed to resolve regions: %w", err)
	}

	created, skipped := 0, 0
	for _, region := range regions {
		provider, err := awsprovider.New(ctx, awsprovider.Options{
			Region:  region,
			Profile: cmd.Config.Profile,
		})
		if err != nil {
			cmd.Logger.LogScanError(ctx, region, err)
			continue
		}

		c, s, err := cmd.enableForRegion(ctx, provider, dryRun)
		if err != nil {
			cmd.Logger.LogScanError(ctx, region, err)
			continue
		}
		created += c
		skipped += s
	}

	verb := "created"
	if dryRun {
		verb = "would create"
	}
	fmt.Fprintf(os.Stdout, "Flow logs: %s %d, skipped %d already active\n", verb, created, skipped)
	return nil
}

// enableForRegion walks one region's VPCs.
func (cmd *FlowLogsCommand) enableForRegion(ctx context.Context, provider *awsprovider.Provider, dryRun bool) (created, skipped int, err error) {
	vpcs, err := provider.ListVPCs(ctx)
	if err != nil {
		return 0, 0, err
	}

	active, err := provider.ActiveFlowLogVPCs(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, vpc := range vpcs {
		if active[vpc.VpcID] {
			skipped++
			continue
		}

		if err := cmd.enableOne(ctx, provider, vpc.VpcID, dryRun); err != nil {
			cmd.Logger.LogActionError(ctx, string(auditlog.ActionCreateFlowLog), vpc.VpcID, err)
			continue
		}
		created++
	}

	return created, skipped, nil
}

// enableOne creates the log group and flow log for one VPC, or just
// records intent under dry-run.
func (cmd *FlowLogsCommand) enableOne(ctx context.Context, provider *awsprovider.Provider, vpcID string, dryRun bool) error {
	logGroup := "/vartija/flowlogs/" + vpcID
	detail := flowLogDetail{
		VpcID:       vpcID,
		LogGroup:    logGroup,
		TrafficType: cmd.Config.Actions.TrafficType,
	}

	cmd.Logger.LogAction(ctx, string(auditlog.ActionCreateFlowLog), vpcID, dryRun)

	if dryRun {
		telemetry.CountActionSkipped(ctx)
		return cmd.Log.Record(auditlog.ActionCreateFlowLog, auditlog.OutcomeDryRun, provider.Region(), vpcID, detail)
	}

	if err := provider.EnsureLogGroup(ctx, logGroup, cmd.Config.Actions.RetentionDays); err != nil {
		_ = cmd.Log.RecordError(auditlog.ActionCreateFlowLog, provider.Region(), vpcID, detail, err)
		return err
	}

	flowLogID, err := provider.CreateFlowLog(ctx, vpcID, logGroup,
		cmd.Config.Actions.RoleARN, ec2types.TrafficType(cmd.Config.Actions.TrafficType))
	if err != nil {
		_ = cmd.Log.RecordError(auditlog.ActionCreateFlowLog, provider.Region(), vpcID, detail, err)
		return err
	}

	detail.FlowLogID = flowLogID
	telemetry.CountActionExecuted(ctx)
	return cmd.Log.Record(auditlog.ActionCreateFlowLog, auditlog.OutcomeExecuted, provider.Region(), vpcID, detail)
}
