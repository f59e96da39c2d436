package observability

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector manages the service metrics, exported in Prometheus
// format through the OpenTelemetry metrics SDK. A disabled collector is a
// valid no-op value.
type MetricsCollector struct {
	meter metric.Meter

	httpRequests   metric.Int64Counter
	agentRequests  metric.Int64Counter
	agentLatency   metric.Float64Histogram
	parseFallbacks metric.Int64Counter
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)
	meter := provider.Meter("otto")

	httpRequests, err := meter.Int64Counter(
		"otto.http.requests.total",
		metric.WithDescription("Total number of HTTP requests handled"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests counter: %w", err)
	}

	agentRequests, err := meter.Int64Counter(
		"otto.agent.requests.total",
		metric.WithDescription("Total number of upstream agent calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_requests counter: %w", err)
	}

	agentLatency, err := meter.Float64Histogram(
		"otto.agent.latency",
		metric.WithDescription("Upstream agent call latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_latency histogram: %w", err)
	}

	parseFallbacks, err := meter.Int64Counter(
		"otto.parse.fallbacks.total",
		metric.WithDescription("Responses that fell through to a parse fallback"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse_fallbacks counter: %w", err)
	}

	return &MetricsCollector{
		meter:          meter,
		httpRequests:   httpRequests,
		agentRequests:  agentRequests,
		agentLatency:   agentLatency,
		parseFallbacks: parseFallbacks,
	}, nil
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsCollector) Handler() http.Handler {
	return promclient.Handler()
}

// RecordHTTPRequest counts one handled request.
func (m *MetricsCollector) RecordHTTPRequest(ctx context.Context, route string, status int) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}

// RecordAgentCall counts one upstream agent call and its latency.
func (m *MetricsCollector) RecordAgentCall(ctx context.Context, agent string, seconds float64, success bool) {
	if m == nil || m.agentRequests == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("agent", agent),
		attribute.Bool("success", success),
	)
	m.agentRequests.Add(ctx, 1, attrs)
	m.agentLatency.Record(ctx, seconds, attrs)
}

// RecordParseFallback counts a response that needed a fallback strategy.
func (m *MetricsCollector) RecordParseFallback(ctx context.Context, kind string) {
	if m == nil || m.parseFallbacks == nil {
		return
	}
	m.parseFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
