package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/inkpress/content-platform/internal/config"
)

const meterName = "content-platform"

type gateMetrics struct {
	rateLimitDecisions metric.Int64Counter
	sessionRotations   metric.Int64Counter
	sessionLifecycle   metric.Int64Counter
	accessValidations  metric.Int64Counter
	repositoryOps      metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *gateMetrics
)

func instruments() *gateMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)
		m := &gateMetrics{}
		var err error
		if m.rateLimitDecisions, err = meter.Int64Counter("gate.rate_limit.decisions"); err != nil {
			return
		}
		if m.sessionRotations, err = meter.Int64Counter("gate.session.rotations"); err != nil {
			return
		}
		if m.sessionLifecycle, err = meter.Int64Counter("gate.session.lifecycle"); err != nil {
			return
		}
		if m.accessValidations, err = meter.Int64Counter("gate.access_token.validations"); err != nil {
			return
		}
		if m.repositoryOps, err = meter.Int64Counter("repository.operations"); err != nil {
			return
		}
		metrics = m
	})
	return metrics
}

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func RecordRateLimitDecision(ctx context.Context, scope, decision string) {
	m := instruments()
	if m == nil {
		return
	}
	m.rateLimitDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
	))
}

func RecordSessionRotation(ctx context.Context, status string) {
	m := instruments()
	if m == nil {
		return
	}
	m.sessionRotations.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordSessionLifecycle(ctx context.Context, action, status string) {
	m := instruments()
	if m == nil {
		return
	}
	m.sessionLifecycle.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordAccessTokenValidation(ctx context.Context, result, source string) {
	m := instruments()
	if m == nil {
		return
	}
	m.accessValidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("source", source),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, status string) {
	m := instruments()
	if m == nil {
		return
	}
	m.repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
