package main

import (
	"github.com/spf13/cobra"

	"github.com/vartija/vartija/auditlog"
	"github.com/vartija/vartija/telemetry"
)

var (
	flowlogsRoleARN     string
	flowlogsTrafficType string
	flowlogsApply       bool
)

// flowlogsCmd represents the flowlogs command
var flowlogsCmd = &cobra.Command{
	Use:   "flowlogs",
	Short: "Enable VPC Flow Logs where missing",
	Long: `Enable VPC Flow Logs on every VPC that doesn't already have an
active one. Delivery goes to a CloudWatch Logs group per VPC with a
bounded retention, through the IAM role given by --role-arn or
ROLE_ARN.

Dry-run is the default; pass --apply to make changes. Re-running is
safe: VPCs with an active flow log are skipped.`,
	Example: `  vartija flowlogs                                   # show what would change
  vartija flowlogs --apply --role-arn arn:aws:iam::123456789012:role/flowlogs
  TRAFFIC_TYPE=REJECT vartija flowlogs --apply --role-arn ...`,
	RunE: runFlowLogs,
}

func init() {
	rootCmd.AddCommand(flowlogsCmd)

	flowlogsCmd.Flags().StringVar(&flowlogsRoleARN, "role-arn", "", "IAM role for flow log delivery (env ROLE_ARN)")
	flowlogsCmd.Flags().StringVar(&flowlogsTrafficType, "traffic-type", "", "Traffic to capture: ALL, ACCEPT, REJECT (env TRAFFIC_TYPE)")
	flowlogsCmd.Flags().BoolVar(&flowlogsApply, "apply", false, "Execute changes instead of dry-run")
}

func runFlowLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flowlogsRoleARN != "" {
		cfg.Actions.RoleARN = flowlogsRoleARN
	}
	if flowlogsTrafficType != "" {
		cfg.Actions.TrafficType = flowlogsTrafficType
	}
	if flowlogsApply {
		cfg.Actions.DryRun = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	actionLog, err := auditlog.Open(cfg.AuditLog)
	if err != nil {
		return err
	}
	defer func() { _ = actionLog.Close() }()

	flowlogs := &FlowLogsCommand{
		Config: cfg,
		Logger: telemetry.NewConsoleLogger("vartija"),
		Log:    actionLog,
	}
	return flowlogs.Run(cmd.Context())
}
