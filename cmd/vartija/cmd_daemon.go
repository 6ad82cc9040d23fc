package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vartija/vartija/internal/daemon"
	"github.com/vartija/vartija/telemetry"
	"github.com/vartija/vartija/types"
)

var (
	daemonInterval    time.Duration
	daemonMetricsAddr string
	daemonOTELAddr    string
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run continuous posture scans",
	Long: `Run vartija as a long-lived process: a full posture scan on startup
and then on every interval, with Prometheus metrics on /metrics and a
health endpoint on /healthz. Traces and metrics also push over OTLP
when a collector endpoint is set.

The daemon never mutates anything; it scans, records history, and
reports.`,
	Example: `  vartija daemon
  vartija daemon --interval 15m --metrics-addr :9090
  vartija daemon --otel-endpoint collector:4317`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Time between scans (default from config, 1h)")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address (default from config, :9090)")
	daemonCmd.Flags().StringVar(&daemonOTELAddr, "otel-endpoint", "", "OTLP collector endpoint (env OTEL_EXPORTER_OTLP_ENDPOINT)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if daemonInterval > 0 {
		cfg.Daemon.Interval = daemonInterval
	}
	if daemonMetricsAddr != "" {
		cfg.Daemon.MetricsAddr = daemonMetricsAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := telemetry.NewLogger("vartija")

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "vartija",
		ServiceVersion: rootCmd.Version,
		OTELEndpoint:   daemonOTELAddr,
		Insecure:       true,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	scan := func(ctx context.Context) error {
		resources, err := collectInventory(ctx, cfg, logger, types.ResourceFilter{})
		if err != nil {
			return err
		}
		if _, err := inventoryFindings(ctx, cfg, logger, resources); err != nil {
			return err
		}
		return recordScanQuiet(cfg, logger, resources)
	}

	d, err := daemon.New(daemon.Config{
		Interval:    cfg.Daemon.Interval,
		MetricsAddr: cfg.Daemon.MetricsAddr,
	}, scan, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Dur("interval", cfg.Daemon.Interval).
		Str("metrics_addr", cfg.Daemon.MetricsAddr).
		Msg("daemon starting")

	err = d.Run(ctx)
	if err == context.Canceled {
		err = nil
	}
	logger.Info().Int64("scans", d.ScanCount()).Msg("daemon stopped")
	return err
}
