package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/logger"
	"github.com/kbukum/datasets/pipeline"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.ServiceVersion != "dev" {
		t.Errorf("expected ServiceVersion 'dev', got %q", cfg.ServiceVersion)
	}
}

func TestNewPipelineMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewPipelineMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordPassStart(ctx, "coco")
	metrics.RecordStage(ctx, "coco", pipeline.Stats{Stage: "join", In: 3, Out: 2, Dropped: 1, HighWater: 4})
	metrics.RecordPassEnd(ctx, "coco", StatusOK, 2, 100*time.Millisecond)
	metrics.RecordError(ctx, "coco", "BUFFER_EXHAUSTED")
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestPipelineMetrics_RecordsStageOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewPipelineMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	metrics.RecordPassStart(ctx, "coco")
	metrics.RecordStage(ctx, "coco", pipeline.Stats{Stage: "demux", In: 5, Out: 3, Dropped: 2})
	metrics.RecordPassEnd(ctx, "coco", StatusOK, 3, time.Second)

	sums := collectSums(t, reader)
	if sums["pipeline.stage.items"] != 10 {
		t.Errorf("expected 10 stage items, got %d", sums["pipeline.stage.items"])
	}
	if sums["pipeline.samples.total"] != 3 {
		t.Errorf("expected 3 samples, got %d", sums["pipeline.samples.total"])
	}
	if sums["pipeline.pass.total"] != 1 {
		t.Errorf("expected 1 pass, got %d", sums["pipeline.pass.total"])
	}
	if sums["pipeline.pass.active"] != 0 {
		t.Errorf("expected no active pass, got %d", sums["pipeline.pass.active"])
	}
}

func TestPassContext_Duration(t *testing.T) {
	pc := NewPassContext("coco", "run-1", nil)
	pc.StartTime = time.Now().Add(-50 * time.Millisecond)

	duration := pc.Duration()
	if duration < 45*time.Millisecond || duration > 200*time.Millisecond {
		t.Errorf("expected duration around 50ms, got %v", duration)
	}
}

func TestPassContext_NilMetrics(t *testing.T) {
	pc := NewPassContext("coco", "run-1", nil)
	ctx, span := pc.StartSpan(context.Background())
	if ctx == nil || span == nil {
		t.Fatal("expected a span and its context")
	}
	pc.End(ctx, span, StatusOK, 0, nil, nil)
}

func TestPassContext_EndWithError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	metrics, _ := NewPipelineMetrics(noop.NewMeterProvider().Meter("test"))
	pc := NewPassContext("coco", "run-2", metrics)
	ctx, span := pc.StartSpan(context.Background())
	pc.End(ctx, span, StatusError, 0, []pipeline.Stats{{Stage: "group"}}, errors.BufferExhausted("group", 8))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanPass {
		t.Errorf("expected span %q, got %q", SpanPass, spans[0].Name)
	}
	var code string
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == AttrErrorCode {
			code = attr.Value.AsString()
		}
	}
	if code != string(errors.ErrCodeBufferExhausted) {
		t.Errorf("expected error code attribute, got %q", code)
	}
}

func TestNewServiceHealth(t *testing.T) {
	sh := NewServiceHealth("cocopipe", "1.0.0")

	if sh.Service != "cocopipe" {
		t.Errorf("expected Service 'cocopipe', got %s", sh.Service)
	}
	if sh.Status != HealthStatusUp {
		t.Errorf("expected Status 'up', got %s", sh.Status)
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("cocopipe", "1.0.0")

	sh.AddComponent(Health{Name: "images", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("expected status 'up' after healthy component, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "categories", Status: HealthStatusDegraded, Message: "not loaded"})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected status 'degraded', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "annotations", Status: HealthStatusDown, Message: "no such file"})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected status 'down', got %s", sh.Status)
	}

	if len(sh.Components) != 3 {
		t.Errorf("expected 3 components, got %d", len(sh.Components))
	}
}

func TestServiceHealth_DegradedDoesNotOverrideDown(t *testing.T) {
	sh := NewServiceHealth("svc", "1.0.0")
	sh.AddComponent(Health{Name: "a", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "b", Status: HealthStatusDegraded})

	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", sh.Status)
	}
}

func TestCheckAll(t *testing.T) {
	up := HealthCheckFunc(func(context.Context) Health { return Health{Name: "a", Status: HealthStatusUp} })
	down := HealthCheckFunc(func(context.Context) Health { return Health{Name: "b", Status: HealthStatusDown} })

	sh := CheckAll(context.Background(), "svc", "1.0.0", up, down)
	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down', got %s", sh.Status)
	}
	if len(sh.Components) != 2 || sh.Components[1].Name != "b" {
		t.Errorf("unexpected components: %+v", sh.Components)
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-operation")
	defer span.End()

	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestLogContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), "test-log")
	defer span.End()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "test", &buf)
	log.WithContext(LogContext(ctx)).Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	sc := span.SpanContext()
	if line[logger.FieldTraceID] != sc.TraceID().String() {
		t.Errorf("expected trace_id %s, got %v", sc.TraceID(), line[logger.FieldTraceID])
	}
	if line[logger.FieldSpanID] != sc.SpanID().String() {
		t.Errorf("expected span_id %s, got %v", sc.SpanID(), line[logger.FieldSpanID])
	}
}

func TestLogContextWithoutSpan(t *testing.T) {
	ctx := context.Background()
	if LogContext(ctx) != ctx {
		t.Error("expected the context to be returned unchanged")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %s, want %s", tc.rate, got, tc.want)
		}
	}
}

func TestInitTracerSamplingRates(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
	}{
		{"always sample", 1.0},
		{"never sample", 0.0},
		{"ratio based", 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.SampleRate = tc.sampleRate
			tp, err := InitTracer(context.Background(), &cfg)
			if err != nil {
				t.Skipf("InitTracer failed: %v", err)
			}
			defer tp.Shutdown(context.Background())
		})
	}
}
