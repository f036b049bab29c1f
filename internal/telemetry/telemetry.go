// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
)

// Provider owns the tracer provider installed by Init. A zero Provider is
// the disabled state and its Shutdown is a no-op.
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.TracerProvider == nil {
		return nil
	}
	return p.TracerProvider.Shutdown(ctx)
}

// Init exports spans over OTLP/gRPC when cfg.OTLPEndpoint is set. Otherwise
// the global noop provider stays in place.
func Init(ctx context.Context, cfg config.Config, serviceName, version string) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.OTLPEndpoint == "" {
		slog.Debug("trace export disabled")
		return &Provider{}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
			attribute.String("deployment.environment", cfg.AppEnv),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	slog.Info("trace export enabled", "endpoint", cfg.OTLPEndpoint)

	return &Provider{TracerProvider: tp}, nil
}
