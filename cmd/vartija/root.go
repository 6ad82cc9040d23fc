package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vartija/vartija/config"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "vartija",
		Short: "AWS security posture auditor",
		Long: `Vartija - AWS security posture auditor

Vartija keeps watch over an AWS account: it inventories everything
with a public surface, audits IAM hygiene, and fixes the boring gaps
(flow logs, gateway endpoints, stale images) safely behind dry-run.`,
		Version: version,
	}

	flagConfig  string
	flagRegions []string
	flagProfile string
	flagOutput  string
	flagDebug   bool
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Vartija {{.Version}} - AWS security posture auditor
`)

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringSliceVarP(&flagRegions, "region", "r", nil, "AWS regions (repeatable; default: all enabled regions)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "AWS shared config profile")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output format: table, csv, json")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

// loadConfig layers flags over the config file and environment.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	if len(flagRegions) > 0 {
		cfg.Regions = flagRegions
	}
	if flagProfile != "" {
		cfg.Profile = flagProfile
	}
	if flagOutput != "" {
		cfg.Output = flagOutput
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if flagDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg, nil
}
