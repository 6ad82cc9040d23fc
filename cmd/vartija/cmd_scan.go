package main

import (
	"github.com/spf13/cobra"

	"github.com/vartija/vartija/telemetry"
)

var scanTypes []string

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inventory resources with a public surface",
	Long: `Scan the account for everything reachable from the internet:
EC2 instances with public IPs, Elastic IPs, NAT gateways,
internet-facing load balancers, public RDS and Redshift, open EKS
API endpoints, unauthenticated Lambda URLs, and S3 buckets without
a complete public access block.

Each scan is recorded so consecutive runs report new and resolved
exposures.`,
	Example: `  vartija scan                          # all enabled regions
  vartija scan -r eu-west-1             # one region
  vartija scan -o csv > inventory.csv   # CSV report
  vartija scan --type elastic-ip        # one resource type`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceVar(&scanTypes, "type", nil, "Filter by resource type (repeatable)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scan := &ScanCommand{
		Config: cfg,
		Types:  scanTypes,
		Logger: telemetry.NewConsoleLogger("vartija"),
	}
	return scan.Run(cmd.Context())
}
