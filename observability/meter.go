package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/datasets/logger"
	"github.com/kbukum/datasets/pipeline"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PipelineMetrics holds the instruments recorded for dataset passes.
type PipelineMetrics struct {
	passTotal      metric.Int64Counter
	passDuration   metric.Float64Histogram
	passActive     metric.Int64UpDownCounter
	samplesTotal   metric.Int64Counter
	stageItems     metric.Int64Counter
	stageHighWater metric.Int64Histogram
	errorTotal     metric.Int64Counter
}

// NewPipelineMetrics creates metric instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	passTotal, err := meter.Int64Counter("pipeline.pass.total",
		metric.WithDescription("Total number of finished passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.pass.total counter: %w", err)
	}

	passDuration, err := meter.Float64Histogram("pipeline.pass.duration",
		metric.WithDescription("Duration of passes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.pass.duration histogram: %w", err)
	}

	passActive, err := meter.Int64UpDownCounter("pipeline.pass.active",
		metric.WithDescription("Number of passes in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.pass.active gauge: %w", err)
	}

	samplesTotal, err := meter.Int64Counter("pipeline.samples.total",
		metric.WithDescription("Total number of samples yielded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.samples.total counter: %w", err)
	}

	stageItems, err := meter.Int64Counter("pipeline.stage.items",
		metric.WithDescription("Items seen by buffering stages, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.items counter: %w", err)
	}

	stageHighWater, err := meter.Int64Histogram("pipeline.stage.buffer_high_water",
		metric.WithDescription("Largest number of items a stage held during a pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.buffer_high_water histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("pipeline.error.total",
		metric.WithDescription("Failed passes by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.error.total counter: %w", err)
	}

	return &PipelineMetrics{
		passTotal:      passTotal,
		passDuration:   passDuration,
		passActive:     passActive,
		samplesTotal:   samplesTotal,
		stageItems:     stageItems,
		stageHighWater: stageHighWater,
		errorTotal:     errorTotal,
	}, nil
}

// RecordPassStart increments the active pass count.
func (m *PipelineMetrics) RecordPassStart(ctx context.Context, dataset string) {
	m.passActive.Add(ctx, 1, metric.WithAttributes(attribute.String("dataset", dataset)))
}

// RecordPassEnd decrements active passes and records the finished pass.
func (m *PipelineMetrics) RecordPassEnd(ctx context.Context, dataset, status string, samples int, duration time.Duration) {
	ds := attribute.String("dataset", dataset)
	m.passActive.Add(ctx, -1, metric.WithAttributes(ds))
	m.passTotal.Add(ctx, 1, metric.WithAttributes(ds, attribute.String("status", status)))
	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(ds))
	m.samplesTotal.Add(ctx, int64(samples), metric.WithAttributes(ds))
}

// RecordStage records the counters of one buffering stage after a pass.
func (m *PipelineMetrics) RecordStage(ctx context.Context, dataset string, s pipeline.Stats) {
	base := []attribute.KeyValue{attribute.String("dataset", dataset), attribute.String("stage", s.Stage)}
	outcomes := []struct {
		name  string
		count int
	}{
		{"in", s.In},
		{"out", s.Out},
		{"dropped", s.Dropped},
		{"duplicate", s.Duplicates},
	}
	for _, o := range outcomes {
		if o.count == 0 {
			continue
		}
		attrs := append(append([]attribute.KeyValue{}, base...), attribute.String("outcome", o.name))
		m.stageItems.Add(ctx, int64(o.count), metric.WithAttributes(attrs...))
	}
	m.stageHighWater.Record(ctx, int64(s.HighWater), metric.WithAttributes(base...))
}

// RecordError records a failed pass by error code.
func (m *PipelineMetrics) RecordError(ctx context.Context, dataset, code string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dataset", dataset),
		attribute.String("code", code),
	))
}
