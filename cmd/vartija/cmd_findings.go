package main

import (
	"github.com/spf13/cobra"

	awsprovider "github.com/vartija/vartija/providers/aws"
	"github.com/vartija/vartija/telemetry"
)

var (
	findingsRegion     string
	findingsSeverity   []string
	findingsWorkflow   []string
	findingsCompliance []string
	findingsRecord     []string
	findingsMax        int
	findingsOut        string
)

// findingsCmd represents the findings command
var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Export Security Hub findings",
	Long: `Export AWS Security Hub findings as a JSON document with an export
metadata header (date, account, severity and workflow totals). Filters
narrow the export; with no filters everything comes back.

The JSON goes to stdout or --out; the human summary goes to stderr so
the document stays pipeable.`,
	Example: `  vartija findings --severity CRITICAL,HIGH
  vartija findings --workflow-status NEW --record-state ACTIVE --out findings.json
  vartija findings --severity HIGH --max-results 500 | jq '.findings[].Title'`,
	RunE: runFindings,
}

func init() {
	rootCmd.AddCommand(findingsCmd)

	findingsCmd.Flags().StringVar(&findingsRegion, "findings-region", "", "Region to export from (defaults to first configured region)")
	findingsCmd.Flags().StringSliceVar(&findingsSeverity, "severity", nil, "Severity labels: CRITICAL, HIGH, MEDIUM, LOW, INFORMATIONAL")
	findingsCmd.Flags().StringSliceVar(&findingsWorkflow, "workflow-status", nil, "Workflow statuses: NEW, NOTIFIED, RESOLVED, SUPPRESSED")
	findingsCmd.Flags().StringSliceVar(&findingsCompliance, "compliance-status", nil, "Compliance statuses: PASSED, WARNING, FAILED, NOT_AVAILABLE")
	findingsCmd.Flags().StringSliceVar(&findingsRecord, "record-state", nil, "Record states: ACTIVE, ARCHIVED")
	findingsCmd.Flags().IntVar(&findingsMax, "max-results", 0, "Stop after this many findings (0 = unlimited)")
	findingsCmd.Flags().StringVar(&findingsOut, "out", "", "Write the JSON export to this file instead of stdout")
}

func runFindings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	findings := &FindingsCommand{
		Config: cfg,
		Region: findingsRegion,
		Filter: awsprovider.FindingsFilter{
			SeverityLabels:     findingsSeverity,
			WorkflowStatuses:   findingsWorkflow,
			ComplianceStatuses: findingsCompliance,
			RecordStates:       findingsRecord,
			MaxResults:         findingsMax,
		},
		OutPath: findingsOut,
		Logger:  telemetry.NewConsoleLogger("vartija"),
	}
	return findings.Run(cmd.Context())
}
