// Package observability wires OpenTelemetry metrics (Prometheus exposition)
// and tracing (OTLP over gRPC).
package observability

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// InitMetrics installs a global meter provider backed by a Prometheus exporter
// on a private registry, alongside Go runtime and process collectors.
// It returns the /metrics handler and a shutdown function.
func InitMetrics(serviceName string) (http.Handler, func(context.Context) error, error) {
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(resource.NewSchemaless(semconv.ServiceName(serviceName))),
	)
	otel.SetMeterProvider(provider)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), provider.Shutdown, nil
}

// RegisterJobGauge exposes the number of registered jobs, computed only when
// the metrics endpoint is scraped.
func RegisterJobGauge(count func() int64) error {
	meter := otel.Meter("statusboard")
	_, err := meter.Int64ObservableGauge("statusboard.jobs.registered",
		otelmetric.WithDescription("Jobs currently held in the registry, terminal ones included until purged"),
		otelmetric.WithInt64Callback(func(_ context.Context, obs otelmetric.Int64Observer) error {
			obs.Observe(count())
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register job gauge: %w", err)
	}
	return nil
}
