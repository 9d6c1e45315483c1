package observability

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/config"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/logger"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/metrics"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires the logger, tracer provider and metric instruments.
var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) (logger.Config, tracing.Config, metrics.Config) {
		return logger.Config{
				Level:       cfg.LogLevel,
				Environment: cfg.Environment,
			},
			tracing.Config{
				Enabled:          cfg.TracingEnabled,
				ServiceName:      cfg.ServiceName,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.TracingEndpoint,
			},
			metrics.Config{
				ServiceName: cfg.ServiceName,
				Environment: cfg.Environment,
				Namespace:   cfg.MetricsNamespace,
			}
	}),
	fx.Provide(logger.New),
	fx.Provide(tracing.NewProvider),
	fx.Provide(func() metric.MeterProvider { return otel.GetMeterProvider() }),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(metrics.GenerationWithConfig),
	// Force tracer provider construction so the global propagator and
	// provider are installed even when nothing injects it directly.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
