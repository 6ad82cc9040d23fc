package main

import (
	"github.com/spf13/cobra"

	"github.com/vartija/vartija/auditlog"
	"github.com/vartija/vartija/telemetry"
)

var (
	cleanupImages    bool
	cleanupSnapshots bool
	cleanupEIPs      bool
	cleanupZones     bool
	cleanupAgeDays   int
	cleanupApply     bool
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove aged AMIs, snapshots, idle EIPs, empty zones",
	Long: `Find and remove resources that cost money while doing nothing:
AMIs and EBS snapshots older than the age limit, Elastic IPs not
associated with anything, and Route 53 zones holding only their SOA
and NS records. Deregistering an AMI also deletes its backing
snapshots.

Tag a resource vartija:keep=true to pin it against cleanup.

Dry-run is the default; pass --apply to make changes.`,
	Example: `  vartija cleanup                      # report all candidates
  vartija cleanup --age 180            # only flag things older than 180 days
  vartija cleanup --eips --apply       # release idle Elastic IPs only
  vartija cleanup --apply              # remove everything flagged`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().BoolVar(&cleanupImages, "images", false, "Clean up old AMIs and their snapshots")
	cleanupCmd.Flags().BoolVar(&cleanupSnapshots, "snapshots", false, "Clean up old EBS snapshots")
	cleanupCmd.Flags().BoolVar(&cleanupEIPs, "eips", false, "Release unassociated Elastic IPs")
	cleanupCmd.Flags().BoolVar(&cleanupZones, "zones", false, "Delete empty Route 53 hosted zones")
	cleanupCmd.Flags().IntVar(&cleanupAgeDays, "age", 0, "Age limit in days for AMIs and snapshots (env AGE_DAYS)")
	cleanupCmd.Flags().BoolVar(&cleanupApply, "apply", false, "Execute changes instead of dry-run")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cleanupAgeDays > 0 {
		cfg.Scan.AgeDays = cleanupAgeDays
	}
	if cleanupApply {
		cfg.Actions.DryRun = false
	}

	// No class flags means everything.
	all := !cleanupImages && !cleanupSnapshots && !cleanupEIPs && !cleanupZones

	actionLog, err := auditlog.Open(cfg.AuditLog)
	if err != nil {
		return err
	}
	defer func() { _ = actionLog.Close() }()

	cleanup := &CleanupCommand{
		Config:    cfg,
		Logger:    telemetry.NewConsoleLogger("vartija"),
		Log:       actionLog,
		Images:    cleanupImages || all,
		Snapshots: cleanupSnapshots || all,
		EIPs:      cleanupEIPs || all,
		Zones:     cleanupZones || all,
	}
	return cleanup.Run(cmd.Context())
}
