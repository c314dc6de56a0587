package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	BatchTimeout   time.Duration

	// Writer receives the stdout exporter's output, os.Stderr when nil
	Writer io.Writer
	// Pretty indents exported spans
	Pretty bool
	// Exporter replaces the stdout exporter when set
	Exporter sdktrace.SpanExporter
	// Sync exports every span as it ends instead of batching
	Sync bool
}

// DefaultTracingConfig returns a disabled configuration with sane values for
// the remaining fields.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "poolbench",
		ServiceVersion: "dev",
		Environment:    getEnv("ENVIRONMENT", "development"),
		SamplingRate:   1.0,
		BatchTimeout:   time.Second,
	}
}

// ShutdownFunc flushes and stops what InitTracing started.
type ShutdownFunc func(ctx context.Context) error

// InitTracing installs a tracer provider. A disabled config installs a
// no-op tracer so callers never have to check. It may be called again; the
// previous provider is not shut down.
func InitTracing(config TracingConfig) (ShutdownFunc, error) {
	if !config.Enabled {
		setTracer(noop.NewTracerProvider().Tracer(config.ServiceName))
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter := config.Exporter
	if exporter == nil {
		w := config.Writer
		if w == nil {
			w = os.Stderr
		}
		opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
		if config.Pretty {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	}

	// Configure sampling
	var sampler sdktrace.Sampler
	if config.SamplingRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else if config.SamplingRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	export := sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout))
	if config.Sync {
		export = sdktrace.WithSyncer(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		export,
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	setTracer(tp.Tracer(config.ServiceName))

	return tp.Shutdown, nil
}

// getEnv gets environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
