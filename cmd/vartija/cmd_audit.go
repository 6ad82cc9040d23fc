package main

import (
	"github.com/spf13/cobra"

	"github.com/vartija/vartija/telemetry"
)

var auditRegion string

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit IAM and account security posture",
	Long: `Audit the account's identity hygiene: console users without MFA,
access keys past their age limit, password policy weaknesses, root
account MFA and access keys, plus CloudTrail, KMS rotation, DynamoDB
backups, and SQS queue policies.

IAM is global; the region only selects the API endpoint. AGE_DAYS
caps access key age (default 90).`,
	Example: `  vartija audit                 # full account audit
  vartija audit -o json         # machine-readable report
  AGE_DAYS=180 vartija audit    # relax the key age limit`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditRegion, "audit-region", "", "Region for the regional posture checks")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	auditCommand := &AuditCommand{
		Config: cfg,
		Region: auditRegion,
		Logger: telemetry.NewConsoleLogger("vartija"),
	}
	return auditCommand.Run(cmd.Context())
}
