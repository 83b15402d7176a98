package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hiretrack/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds all custom metrics for HireTrack
type Metrics struct {
	// Screening metrics
	ScreeningDuration metric.Float64Histogram
	ScreeningsRun     metric.Int64Counter
	ScreeningErrors   metric.Int64Counter

	// Pipeline metrics
	ApplicationsReceived metric.Int64Counter
	EvaluationsRecorded  metric.Int64Counter
	EmailsSent           metric.Int64Counter
	EmailsFailed         metric.Int64Counter

	// Certificate metrics
	CertReloadCount metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config           ObservabilityConfig
	fullConfig       *config.Config
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.ServeMux
}

// NewObservabilityManager creates a new observability manager
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	if !obsConfig.Enabled {
		return &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}, nil
	}

	om := &ObservabilityManager{
		config:        obsConfig,
		fullConfig:    fullConfig,
		shutdownFuncs: make([]func(context.Context) error, 0),
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	if om.config.ConsoleOutput {
		// Console exporter for development
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	} else if om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled {
		// OTLP exporter for production
		exporter, err = om.createOTLPExporter()
	} else {
		// No-op exporter when no production exporter is configured
		exporter = &noOpSpanExporter{}
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := om.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(om.config.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up OpenTelemetry metrics
func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	res, err := om.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	meterProviderOptions := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}
	for _, reader := range readers {
		meterProviderOptions = append(meterProviderOptions, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(meterProviderOptions...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders sets up all metric readers based on configuration
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		interval := om.getMetricsCollectionInterval()
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled {
		otlpReader, err := om.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		if otlpReader != nil {
			readers = append(readers, otlpReader)
		}
	}

	if om.config.Prometheus.Enabled {
		prometheusReader, prometheusMux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if prometheusReader != nil {
			readers = append(readers, prometheusReader)
			om.prometheusServer = prometheusMux

			if err := StartPrometheusServer(prometheusMux, om.config.Prometheus.Port); err != nil {
				return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	// If no readers configured, use manual reader as fallback
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

// createResource creates the OpenTelemetry resource
func (om *ObservabilityManager) createResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
}

// initCustomMetrics creates all custom metrics for HireTrack
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createScreeningMetrics(meter); err != nil {
		return err
	}

	if err := om.createPipelineMetrics(meter); err != nil {
		return err
	}

	return om.createInfrastructureMetrics(meter)
}

// createScreeningMetrics creates screening-related metrics
func (om *ObservabilityManager) createScreeningMetrics(meter metric.Meter) error {
	var err error

	om.metrics.ScreeningDuration, err = meter.Float64Histogram(
		"hiretrack_screening_duration_seconds",
		metric.WithDescription("Time spent building screening reports"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create screening duration metric: %w", err)
	}

	om.metrics.ScreeningsRun, err = meter.Int64Counter(
		"hiretrack_screenings_total",
		metric.WithDescription("Total number of screening reports built"),
	)
	if err != nil {
		return fmt.Errorf("failed to create screenings total metric: %w", err)
	}

	om.metrics.ScreeningErrors, err = meter.Int64Counter(
		"hiretrack_screening_errors_total",
		metric.WithDescription("Total number of failed screening runs"),
	)
	if err != nil {
		return fmt.Errorf("failed to create screening errors metric: %w", err)
	}

	return nil
}

// createPipelineMetrics creates recruitment pipeline metrics
func (om *ObservabilityManager) createPipelineMetrics(meter metric.Meter) error {
	var err error

	om.metrics.ApplicationsReceived, err = meter.Int64Counter(
		"hiretrack_applications_received_total",
		metric.WithDescription("Total number of applications received"),
	)
	if err != nil {
		return fmt.Errorf("failed to create applications received metric: %w", err)
	}

	om.metrics.EvaluationsRecorded, err = meter.Int64Counter(
		"hiretrack_evaluations_recorded_total",
		metric.WithDescription("Total number of manual evaluations recorded"),
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluations recorded metric: %w", err)
	}

	om.metrics.EmailsSent, err = meter.Int64Counter(
		"hiretrack_emails_sent_total",
		metric.WithDescription("Total number of emails delivered"),
	)
	if err != nil {
		return fmt.Errorf("failed to create emails sent metric: %w", err)
	}

	om.metrics.EmailsFailed, err = meter.Int64Counter(
		"hiretrack_emails_failed_total",
		metric.WithDescription("Total number of failed email deliveries"),
	)
	if err != nil {
		return fmt.Errorf("failed to create emails failed metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates certificate and rate limit metrics
func (om *ObservabilityManager) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	om.metrics.CertReloadCount, err = meter.Int64Counter(
		"hiretrack_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"hiretrack_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om.metrics == nil {
		return &Metrics{} // Return empty metrics if not initialized
	}
	return om.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TrackScreening instruments a screening run with tracing and metrics
func (m *Metrics) TrackScreening(ctx context.Context, fn func(context.Context) error, om *ObservabilityManager) error {
	if m.ScreeningDuration == nil {
		// Metrics not initialized, just run the function
		return fn(ctx)
	}

	tracer := om.Tracer("hiretrack.screening")
	ctx, span := tracer.Start(ctx, "screening.report")
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}
	m.ScreeningDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	m.ScreeningsRun.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		m.ScreeningErrors.Add(ctx, 1)
	}

	return err
}

// RecordPipelineMetric records one recruitment pipeline event
func (m *Metrics) RecordPipelineMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	opts := metric.WithAttributes(attrs...)

	switch metricType {
	case "application_received":
		if m.ApplicationsReceived != nil {
			m.ApplicationsReceived.Add(ctx, 1, opts)
		}
	case "evaluation_recorded":
		if m.EvaluationsRecorded != nil {
			m.EvaluationsRecorded.Add(ctx, 1, opts)
		}
	case "email_sent":
		if success {
			if m.EmailsSent != nil {
				m.EmailsSent.Add(ctx, 1, opts)
			}
		} else if m.EmailsFailed != nil {
			m.EmailsFailed.Add(ctx, 1, opts)
		}
	case "rate_limit_hit":
		if m.RateLimitHits != nil {
			m.RateLimitHits.Add(ctx, 1, opts)
		}
	case "cert_reload":
		if m.CertReloadCount != nil {
			m.CertReloadCount.Add(ctx, 1, opts)
		}
	}
}

type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// createOTLPExporter creates an OTLP HTTP trace exporter
func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	if om.fullConfig == nil {
		return nil, fmt.Errorf("config not available for OTLP configuration")
	}

	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return exporter, nil
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	if om.fullConfig == nil {
		return nil, fmt.Errorf("config not available for OTLP configuration")
	}

	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	interval := om.getMetricsCollectionInterval()
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

// getServiceInstanceID returns the service instance ID from config or generates one
func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return "hiretrack-1"
}

// getMetricsCollectionInterval returns the configured metrics collection interval
func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
