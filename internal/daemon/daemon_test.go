package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vartija/vartija/telemetry"
)

func noopScan(context.Context) error { return nil }

func TestNew(t *testing.T) {
	logger := telemetry.NewConsoleLogger("test")

	t.Run("valid config", func(t *testing.T) {
		d, err := New(Config{Interval: time.Minute, MetricsAddr: ":0"}, noopScan, logger)
		require.NoError(t, err)
		assert.NotNil(t, d)
	})

	t.Run("zero interval", func(t *testing.T) {
		_, err := New(Config{MetricsAddr: ":0"}, noopScan, logger)
		require.Error(t, err)
	})

	t.Run("nil scan func", func(t *testing.T) {
		_, err := New(Config{Interval: time.Minute}, nil, logger)
		require.Error(t, err)
	})
}

func TestDaemon_RunScan(t *testing.T) {
	logger := telemetry.NewConsoleLogger("test")

	scans := 0
	d, err := New(Config{Interval: time.Minute, MetricsAddr: ":0"}, func(context.Context) error {
		scans++
		return nil
	}, logger)
	require.NoError(t, err)

	d.runScan(context.Background())
	d.runScan(context.Background())

	assert.Equal(t, 2, scans)
	assert.Equal(t, int64(2), d.ScanCount())
}

func TestDaemon_ScanLoopStopsOnCancel(t *testing.T) {
	logger := telemetry.NewConsoleLogger("test")

	d, err := New(Config{Interval: 10 * time.Millisecond, MetricsAddr: ":0"}, noopScan, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.scanLoop(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scan loop did not stop after cancel")
	}

	assert.GreaterOrEqual(t, d.ScanCount(), int64(2), "immediate scan plus at least one tick")
}
