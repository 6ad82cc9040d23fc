package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vartija/vartija/auditlog"
	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/telemetry"
)

var (
	endpointsServices []string
	endpointsApply    bool
)

// endpointsCmd represents the endpoints command
var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Create S3/DynamoDB gateway endpoints",
	Long: `Create VPC gateway endpoints for S3 and DynamoDB so traffic to
those services stays off the NAT gateways. Endpoints attach to every
route table in the VPC. VPCs that already have the endpoint are
skipped, so re-running is safe.

Dry-run is the default; pass --apply to make changes.`,
	Example: `  vartija endpoints                       # show what would change
  vartija endpoints --apply               # create both endpoint types
  vartija endpoints --service s3 --apply  # S3 only`,
	RunE: runEndpoints,
}

func init() {
	rootCmd.AddCommand(endpointsCmd)

	endpointsCmd.Flags().StringSliceVar(&endpointsServices, "service", []string{awsprovider.GatewayServiceS3, awsprovider.GatewayServiceDynamoDB}, "Gateway services: s3, dynamodb")
	endpointsCmd.Flags().BoolVar(&endpointsApply, "apply", false, "Execute changes instead of dry-run")
}

func runEndpoints(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if endpointsApply {
		cfg.Actions.DryRun = false
	}

	for _, service := range endpointsServices {
		if service != awsprovider.GatewayServiceS3 && service != awsprovider.GatewayServiceDynamoDB {
			return fmt.Errorf("unsupported gateway service %q", service)
		}
	}

	actionLog, err := auditlog.Open(cfg.AuditLog)
	if err != nil {
		return err
	}
	defer func() { _ = actionLog.Close() }()

	endpoints := &EndpointsCommand{
		Config:   cfg,
		Services: endpointsServices,
		Logger:   telemetry.NewConsoleLogger("vartija"),
		Log:      actionLog,
	}
	return endpoints.Run(cmd.Context())
}
