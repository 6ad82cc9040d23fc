package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vartija/vartija/auditlog"
	"github.com/vartija/vartija/config"
	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/telemetry"
)

// EndpointsCommand implements 'vartija endpoints'.
type EndpointsCommand struct {
	Config   *config.Config
	Services []string
	Logger   *telemetry.Logger
	Log      *auditlog.Log
}

// endpointDetail is what gets recorded in the action log per endpoint.
type endpointDetail struct {
	VpcID       string   `json:"vpc_id"`
	ServiceName string   `json:"service_name"`
	RouteTables []string `json:"route_tables"`
	EndpointID  string   `json:"endpoint_id,omitempty"`
}

// Run creates S3/DynamoDB gateway endpoints in every VPC missing
// them, wired to all the VPC's route tables. Idempotent across runs.
func (cmd *EndpointsCommand) Run(ctx context.Context) error {
	dryRun := cmd.Config.Actions.DryRun

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

		c, s, err := cmd.createForRegion(ctx, provider, dryRun)
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
	fmt.Fprintf(os.Stdout, "Gateway endpoints: %s %d, skipped %d already present\n", verb, created, skipped)
	return nil
}

// createForRegion walks one region's VPCs.
func (cmd *EndpointsCommand) createForRegion(ctx context.Context, provider *awsprovider.Provider, dryRun bool) (created, skipped int, err error) {
	vpcs, err := provider.ListVPCs(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, vpc := range vpcs {
		existing, err := provider.ExistingGatewayEndpoints(ctx, vpc.VpcID)
		if err != nil {
			cmd.Logger.LogScanError(ctx, provider.Region(), err)
			continue
		}

		for _, service := range cmd.Services {
			serviceName := provider.GatewayServiceName(service)
			if existing[serviceName] {
				skipped++
				continue
			}

			if err := cmd.createOne(ctx, provider, vpc.VpcID, serviceName, dryRun); err != nil {
				cmd.Logger.LogActionError(ctx, string(auditlog.ActionCreateEndpoint), vpc.VpcID, err)
				continue
			}
			created++
		}
	}

	return created, skipped, nil
}

// createOne creates one gateway endpoint, or records intent under
// dry-run.
func (cmd *EndpointsCommand) createOne(ctx context.Context, provider *awsprovider.Provider, vpcID, serviceName string, dryRun bool) error {
	routeTables, err := provider.RouteTableIDs(ctx, vpcID)
	if err != nil {
		return err
	}
	if len(routeTables) == 0 {
		return fmt.Errorf("VPC %s has no route tables", vpcID)
	}

	detail := endpointDetail{
		VpcID:       vpcID,
		ServiceName: serviceName,
		RouteTables: routeTables,
	}

	cmd.Logger.LogAction(ctx, string(auditlog.ActionCreateEndpoint), vpcID+" "+serviceName, dryRun)

	if dryRun {
		telemetry.CountActionSkipped(ctx)
		return cmd.Log.Record(auditlog.ActionCreateEndpoint, auditlog.OutcomeDryRun, provider.Region(), vpcID, detail)
	}

	endpointID, err := provider.CreateGatewayEndpoint(ctx, vpcID, serviceName, routeTables)
	if err != nil {
		_ = cmd.Log.RecordError(auditlog.ActionCreateEndpoint, provider.Region(), vpcID, detail, err)
		return err
	}

	detail.EndpointID = endpointID
	telemetry.CountActionExecuted(ctx)
	return cmd.Log.Record(auditlog.ActionCreateEndpoint, auditlog.OutcomeExecuted, provider.Region(), vpcID, detail)
}
