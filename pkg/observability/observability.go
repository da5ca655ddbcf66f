// Package observability sets up OpenTelemetry tracing and the Prometheus
// backed metrics used by the bot.
package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// ShutdownFunc flushes and stops a provider
type ShutdownFunc func(ctx context.Context) error

// TracingConfig configures SetupTracing
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// Output defaults to stdout
	Output io.Writer
}

// SetupTracing installs a global tracer provider exporting spans to stdout.
// When tracing is disabled the global no-op provider is left in place.
func SetupTracing(cfg TracingConfig) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("init stdouttrace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(semconv.ServiceName(cfg.ServiceName))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// Metrics holds the instruments recorded by the bot
type Metrics struct {
	provider *sdkmetric.MeterProvider
	registry *prom.Registry
	meter    metric.Meter

	CommandsDispatched metric.Int64Counter
	CommandsLimited    metric.Int64Counter
	MessagesCached     metric.Int64Counter
	Deletions          metric.Int64Counter
	StoreEvictions     metric.Int64Counter
	RiddleFetchErrors  metric.Int64Counter
	DispatchDuration   metric.Float64Histogram
}

// NewMetrics creates a meter provider whose readings are served by Handler
func NewMetrics(serviceName string) (*Metrics, error) {
	registry := prom.NewRegistry()
	exp, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("init prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exp),
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceName(serviceName))),
	)
	m := &Metrics{
		provider: provider,
		registry: registry,
		meter:    provider.Meter("command-bot"),
	}

	if m.CommandsDispatched, err = m.meter.Int64Counter("bot.commands.dispatched",
		metric.WithDescription("Commands handled, by command and outcome")); err != nil {
		return nil, err
	}
	if m.CommandsLimited, err = m.meter.Int64Counter("bot.commands.rate_limited",
		metric.WithDescription("Commands dropped by the per-sender rate limit")); err != nil {
		return nil, err
	}
	if m.MessagesCached, err = m.meter.Int64Counter("bot.messages.cached",
		metric.WithDescription("Messages written to the recency cache")); err != nil {
		return nil, err
	}
	if m.Deletions, err = m.meter.Int64Counter("bot.deletions",
		metric.WithDescription("Deletion notifications, by whether content was recovered")); err != nil {
		return nil, err
	}
	if m.StoreEvictions, err = m.meter.Int64Counter("bot.store.evictions",
		metric.WithDescription("Entries evicted from the recency cache")); err != nil {
		return nil, err
	}
	if m.RiddleFetchErrors, err = m.meter.Int64Counter("bot.riddle.fetch_errors",
		metric.WithDescription("Failed riddle provider calls")); err != nil {
		return nil, err
	}
	if m.DispatchDuration, err = m.meter.Float64Histogram("bot.dispatch.duration",
		metric.WithDescription("Time spent handling one event"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveStoreSize reports size() as the current number of cached entries
func (m *Metrics) ObserveStoreSize(size func() int64) error {
	_, err := m.meter.Int64ObservableGauge("bot.store.size",
		metric.WithDescription("Entries currently held by the recency cache"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(size())
			return nil
		}),
	)
	return err
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown stops the meter provider
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
