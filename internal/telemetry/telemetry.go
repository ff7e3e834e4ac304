// Package telemetry configures OpenTelemetry tracing for session operations.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName identifies leapgate spans.
const ServiceName = "leapgate"

// Config holds tracing configuration.
type Config struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Disabled turns tracing off even when an endpoint is set.
	Disabled bool `koanf:"disabled" json:"disabled" yaml:"disabled"`
}

// Enabled reports whether spans will be exported.
func (c Config) Enabled() bool {
	return !c.Disabled && c.Endpoint != ""
}

// Setup registers a global tracer provider exporting to cfg.Endpoint.
//
// When tracing is not enabled no provider is registered and the returned
// shutdown function does nothing. Callers should defer shutdown to flush
// pending spans.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if !cfg.Enabled() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(ServiceName)))
	if err != nil {
		return noop, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Debug("tracing enabled", slog.String("endpoint", cfg.Endpoint))
	return tp.Shutdown, nil
}
