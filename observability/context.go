package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/pipeline"
)

// Pass statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// PassContext holds the observability state of one dataset pass.
type PassContext struct {
	Dataset   string
	RunID     string
	StartTime time.Time
	Metrics   *PipelineMetrics
}

// NewPassContext creates a pass context.
// If metrics is nil, metric recording is silently skipped.
func NewPassContext(dataset, runID string, metrics *PipelineMetrics) *PassContext {
	return &PassContext{
		Dataset:   dataset,
		RunID:     runID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// StartSpan starts the pass span and records the pass start metric.
func (pc *PassContext) StartSpan(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanPass)
	span.SetAttributes(
		attribute.String(AttrDataset, pc.Dataset),
		attribute.String(AttrRunID, pc.RunID),
	)
	if pc.Metrics != nil {
		pc.Metrics.RecordPassStart(ctx, pc.Dataset)
	}
	return LogContext(ctx), span
}

// End ends the span and records the pass and per-stage metrics.
func (pc *PassContext) End(ctx context.Context, span trace.Span, status string, samples int, stages []pipeline.Stats, err error) {
	duration := pc.Duration()

	if err != nil {
		code := string(errors.Wrap(err).Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.String(AttrErrorCode, code),
			attribute.String(AttrErrorMessage, err.Error()),
		)
		if pc.Metrics != nil {
			pc.Metrics.RecordError(ctx, pc.Dataset, code)
		}
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrSamples, samples),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if pc.Metrics != nil {
		for _, s := range stages {
			pc.Metrics.RecordStage(ctx, pc.Dataset, s)
		}
		pc.Metrics.RecordPassEnd(ctx, pc.Dataset, status, samples, duration)
	}
}

// Duration returns the elapsed time since the pass started.
func (pc *PassContext) Duration() time.Duration {
	return time.Since(pc.StartTime)
}
