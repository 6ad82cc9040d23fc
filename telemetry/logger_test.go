package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	logger := zerolog.New(buf).
		With().
		Str("service", "test").
		Logger().
		Hook(OTELHook{})
	return &Logger{Logger: logger}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any
	decoder := json.NewDecoder(buf)
	for decoder.More() {
		var line map[string]any
		require.NoError(t, decoder.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func TestLogAction(t *testing.T) {
	t.Run("dry run", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferLogger(&buf)

		logger.LogAction(context.Background(), "release-eip", "eipalloc-1", true)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "would execute action", lines[0]["message"])
		assert.Equal(t, true, lines[0]["dry_run"])
		assert.Equal(t, "eipalloc-1", lines[0]["resource_id"])
	})

	t.Run("executed", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferLogger(&buf)

		logger.LogAction(context.Background(), "release-eip", "eipalloc-1", false)

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "executed action", lines[0]["message"])
	})
}

func TestLogScanError_IsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.LogScanError(context.Background(), "eu-west-1", errors.New("throttled"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"], "scan failures warn, they don't abort")
	assert.Equal(t, "eu-west-1", lines[0]["region"])
}

func TestMetricHelpers_NilSafe(t *testing.T) {
	// Instruments are nil until InitOTEL runs; recording must not panic.
	ctx := context.Background()

	CountResourcesScanned(ctx, 10)
	CountFindings(ctx, 3)
	CountActionExecuted(ctx)
	CountActionSkipped(ctx)
	ObserveScanDuration(ctx, 1.5)
	RecordExposures(ctx, 4)
	RecordStorageRevision(ctx, 7)
}
