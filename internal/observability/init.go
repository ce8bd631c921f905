// Package observability initializes OpenTelemetry tracing and structured
// logging for the CLI and its long-running server modes. When no OTLP
// endpoint is configured, no-op providers are used with zero export
// overhead.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName = "utam"

	// envOTLPEndpoint is the standard OTel exporter endpoint variable.
	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

	defaultShutdownTimeout = 5 * time.Second
)

// Config controls initialization.
type Config struct {
	// ServiceVersion stamps the telemetry resource.
	ServiceVersion string
	// Debug lowers the log level to debug.
	Debug bool
	// LogJSON switches the logger to JSON output (server modes).
	LogJSON bool
}

// Providers holds the initialized observability handles.
type Providers struct {
	// Tracer creates spans around pipeline stages.
	Tracer trace.Tracer

	// Logger is the context-aware structured logger.
	Logger *slog.Logger

	// Shutdown flushes pending telemetry. Must be called before exit.
	Shutdown func(ctx context.Context) error
}

// Init wires tracing and logging. The OTLP endpoint comes from the
// standard OTEL_EXPORTER_OTLP_ENDPOINT environment variable.
func Init(cfg Config) (Providers, error) {
	endpoint := os.Getenv(envOTLPEndpoint)

	logger := buildLogger(cfg)

	if endpoint == "" {
		return Providers{
			Tracer:   nooptrace.NewTracerProvider().Tracer(tracerName),
			Logger:   logger,
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(tracerName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return Providers{}, fmt.Errorf("build resource: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return Providers{}, fmt.Errorf("build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(shutdownCtx context.Context) error {
		deadlineCtx, cancel := context.WithTimeout(shutdownCtx, defaultShutdownTimeout)
		defer cancel()

		flushErr := tp.Shutdown(deadlineCtx)
		if flushErr != nil {
			return fmt.Errorf("shutdown tracer provider: %w", flushErr)
		}

		return nil
	}

	return Providers{
		Tracer:   tp.Tracer(tracerName),
		Logger:   logger,
		Shutdown: shutdown,
	}, nil
}

func buildLogger(cfg Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(NewTracingHandler(inner))
}
