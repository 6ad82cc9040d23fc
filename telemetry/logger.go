package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a JSON logger with OTEL hooks, for daemon mode.
func NewLogger(service string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// NewConsoleLogger creates a human-readable logger on stderr, for CLI
// runs where stdout carries the report.
func NewConsoleLogger(service string) *Logger {
	return newConsoleLogger(service, os.Stderr)
}

func newConsoleLogger(service string, out io.Writer) *Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out}).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogScanStart logs the start of a region scan.
func (l *Logger) LogScanStart(ctx context.Context, region string, resourceTypes []string) {
	l.WithContext(ctx).Info().
		Str("region", region).
		Strs("resource_types", resourceTypes).
		Msg("scan started")
}

// LogScanComplete logs scan results for a region.
func (l *Logger) LogScanComplete(ctx context.Context, region string, resourceCount int, durationMs float64) {
	l.WithContext(ctx).Info().
		Str("region", region).
		Int("resources", resourceCount).
		Float64("duration_ms", durationMs).
		Msg("scan completed")
}

// LogScanError logs a per-region failure that the run continues past.
func (l *Logger) LogScanError(ctx context.Context, region string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("region", region).
		Msg("region scan failed, continuing")
}

// LogAction logs a mutating action, executed or skipped under dry-run.
func (l *Logger) LogAction(ctx context.Context, action, resourceID string, dryRun bool) {
	event := l.WithContext(ctx).Info().
		Str("action", action).
		Str("resource_id", resourceID).
		Bool("dry_run", dryRun)
	if dryRun {
		event.Msg("would execute action")
		return
	}
	event.Msg("executed action")
}

// LogActionError logs a failed mutating action.
func (l *Logger) LogActionError(ctx context.Context, action, resourceID string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("action", action).
		Str("resource_id", resourceID).
		Msg("action failed")
}
