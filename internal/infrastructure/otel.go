package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"expenditure/internal/config"
)

// MeterName is the instrumentation scope of pipeline metrics and spans
const MeterName = "expenditure"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics from the telemetry config.
// Spans are always sampled; they are only exported when TracesToStdout is set.
// Metrics are exposed through a private Prometheus registry.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TracesToStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName)
	otel.SetTracerProvider(tp)

	if cfg.MetricsEnabled {
		registry := prom.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName)
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		otel.SetMeterProvider(mp)
	} else {
		providers.Meter = otel.GetMeterProvider().Meter(MeterName)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.String("service", cfg.ServiceName),
		slog.Bool("traces_to_stdout", cfg.TracesToStdout),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled))

	return providers, nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// PipelineMetrics holds the counters and histograms recorded by batch runs
// and the HTTP layer. A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	FilesProcessed      metric.Int64Counter
	FilesSkipped        metric.Int64Counter
	RecordsEmitted      metric.Int64Counter
	ValuesImputed       metric.Int64Counter
	Anomalies           metric.Int64Counter
	BatchDuration       metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// CreatePipelineMetrics registers the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.FilesProcessed, "expenditure_files_processed_total", "Raw files turned into cleaned tables"},
		{&m.FilesSkipped, "expenditure_files_skipped_total", "Raw files recorded in the cleaning report"},
		{&m.RecordsEmitted, "expenditure_records_total", "Cleaned records emitted"},
		{&m.ValuesImputed, "expenditure_values_imputed_total", "Values replaced by their state mean"},
		{&m.Anomalies, "expenditure_anomalies_total", "Record-level anomalies"},
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	if m.BatchDuration, err = meter.Float64Histogram(
		"expenditure_batch_duration_seconds",
		metric.WithDescription("Batch run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create batch duration histogram: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	return m, nil
}

// RecordTable records one successfully cleaned file
func (m *PipelineMetrics) RecordTable(ctx context.Context, category string, records, imputed, anomalies int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("category", category))
	m.FilesProcessed.Add(ctx, 1, attrs)
	m.RecordsEmitted.Add(ctx, int64(records), attrs)
	m.ValuesImputed.Add(ctx, int64(imputed), attrs)
	m.Anomalies.Add(ctx, int64(anomalies), attrs)
}

// RecordSkip records one file left out of a batch
func (m *PipelineMetrics) RecordSkip(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.FilesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", kind)))
}

// RecordBatch records the duration of a whole batch
func (m *PipelineMetrics) RecordBatch(ctx context.Context, duration time.Duration, files int) {
	if m == nil {
		return
	}
	m.BatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Int("files", files)))
}

// RecordHTTPRequest records one served request
func (m *PipelineMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
