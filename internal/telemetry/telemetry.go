// Package telemetry installs an OpenTelemetry tracer provider that exports
// spans over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tsawler/ocrlayout/internal/version"
)

// ShutdownFunc flushes pending spans and stops the exporter.
type ShutdownFunc func(context.Context) error

// Setup registers a global tracer provider for serviceName. protocol is
// "grpc" or "http"; the collector endpoint is read by the exporter from the
// OTEL_EXPORTER_OTLP_* environment.
func Setup(ctx context.Context, serviceName, protocol string) (ShutdownFunc, error) {
	exporter, err := newExporter(ctx, protocol)
	if err != nil {
		return nil, fmt.Errorf("telemetry exporter: %w", err)
	}

	resource, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version.Get().Release),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(resource),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, protocol string) (sdktrace.SpanExporter, error) {
	if strings.EqualFold(protocol, "grpc") {
		return otlptracegrpc.New(ctx)
	}
	return otlptracehttp.New(ctx)
}
