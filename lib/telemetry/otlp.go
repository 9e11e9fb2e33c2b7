package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// otlpEndpoint is a collector to export to, grpc wins when both are set.
type otlpEndpoint struct {
	GrpcEndpoint string            `json:"grpc_endpoint" yaml:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint" yaml:"http_endpoint"`
	Headers      map[string]string `json:"headers" yaml:"headers"`
}

func (e otlpEndpoint) enabled() bool {
	return e.GrpcEndpoint != "" || e.HttpEndpoint != ""
}

func (e otlpEndpoint) log(signal string) {
	kind, endpoint := "http", e.HttpEndpoint
	if e.GrpcEndpoint != "" {
		kind, endpoint = "grpc", e.GrpcEndpoint
	}
	slog.Info(
		signal+" exporter initialized",
		"type", kind,
		"endpoint", endpoint,
		"headers", len(e.Headers) > 0,
	)
}

type config struct {
	Otlp struct {
		Traces  otlpEndpoint `json:"traces" yaml:"traces"`
		Metrics otlpEndpoint `json:"metrics" yaml:"metrics"`
	} `json:"otlp" yaml:"otlp"`
	// MetricIntervalMs defaults to 5 seconds.
	MetricIntervalMs int `json:"metric_interval_ms" yaml:"metric_interval_ms"`
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newSpanExporter(ctx context.Context, e otlpEndpoint) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()
	e.log("trace")

	if e.GrpcEndpoint != "" {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(e.GrpcEndpoint),
			otlptracegrpc.WithHeaders(e.Headers),
		)
	}
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(e.HttpEndpoint),
		otlptracehttp.WithHeaders(e.Headers),
	)
}

func newMetricExporter(ctx context.Context, e otlpEndpoint) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()
	e.log("metric")

	if e.GrpcEndpoint != "" {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(e.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(e.Headers),
		)
	}
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(e.HttpEndpoint),
		otlpmetrichttp.WithHeaders(e.Headers),
	)
}

// newTraceProvider returns nil when no trace endpoint is configured.
func newTraceProvider(ctx context.Context, r *resource.Resource, cfg config) (*trace.TracerProvider, error) {
	if !cfg.Otlp.Traces.enabled() {
		return nil, nil
	}
	exporter, err := newSpanExporter(ctx, cfg.Otlp.Traces)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

// newMetricProvider returns nil when no metric endpoint is configured.
func newMetricProvider(ctx context.Context, r *resource.Resource, cfg config) (*metric.MeterProvider, error) {
	if !cfg.Otlp.Metrics.enabled() {
		return nil, nil
	}
	exporter, err := newMetricExporter(ctx, cfg.Otlp.Metrics)
	if err != nil {
		return nil, err
	}
	interval := time.Second * 5
	if cfg.MetricIntervalMs > 0 {
		interval = time.Duration(cfg.MetricIntervalMs) * time.Millisecond
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}
