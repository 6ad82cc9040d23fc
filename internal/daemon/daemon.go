// Package daemon runs vartija continuously: rescanning on an interval
// and serving Prometheus metrics.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vartija/vartija/telemetry"
)

// Config holds daemon configuration
type Config struct {
	Interval    time.Duration
	MetricsAddr string
}

// ScanFunc is one full posture scan; the daemon calls it on every
// tick.
type ScanFunc func(ctx context.Context) error

// Daemon coordinates the scan loop and the metrics server with a run
// group.
type Daemon struct {
	interval    time.Duration
	metricsAddr string
	scan        ScanFunc
	logger      *telemetry.Logger
	startTime   time.Time
	scanCount   atomic.Int64
}

// New creates a daemon instance.
func New(cfg Config, scan ScanFunc, logger *telemetry.Logger) (*Daemon, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if scan == nil {
		return nil, fmt.Errorf("scan function is required")
	}

	return &Daemon{
		interval:    cfg.Interval,
		metricsAddr: cfg.MetricsAddr,
		scan:        scan,
		logger:      logger,
		startTime:   time.Now(),
	}, nil
}

// Run blocks until ctx is cancelled or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var group run.Group

	group.Add(func() error {
		return d.scanLoop(ctx)
	}, func(error) {
		cancel()
	})

	server := d.metricsServer()
	group.Add(func() error {
		d.logger.Info().Str("addr", d.metricsAddr).Msg("starting metrics server")
		err := server.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	})

	return group.Run()
}

// scanLoop runs one scan immediately, then on every tick.
func (d *Daemon) scanLoop(ctx context.Context) error {
	d.runScan(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("scan loop stopping")
			return nil
		case <-ticker.C:
			d.runScan(ctx)
		}
	}
}

func (d *Daemon) runScan(ctx context.Context) {
	d.scanCount.Add(1)

	start := time.Now()
	if err := d.scan(ctx); err != nil {
		d.logger.Error().Err(err).Msg("scheduled scan failed")
		return
	}
	d.logger.Info().
		Dur("duration", time.Since(start)).
		Int64("scan_count", d.scanCount.Load()).
		Msg("scheduled scan complete")
}

// metricsServer serves /metrics from the telemetry registry and a
// trivial health endpoint.
func (d *Daemon) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "ok uptime=%ds scans=%d\n",
			int64(time.Since(d.startTime).Seconds()), d.scanCount.Load())
	})

	return &http.Server{
		Addr:              d.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ScanCount returns how many scans have run.
func (d *Daemon) ScanCount() int64 {
	return d.scanCount.Load()
}
