// Package observability wires OpenTelemetry tracing and metrics into dataset
// passes.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("cocopipe")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewPipelineMetrics(observability.Meter("cocopipe"))
//
// Each pass is tracked by a PassContext: one span named dataset.pass and, at
// the end, pass, sample and per-stage counters. Logs written under the pass
// context carry its trace_id and span_id; LogContext does the same for any
// other span.
//
//	pc := observability.NewPassContext("coco", runID, metrics)
//	ctx, span := pc.StartSpan(ctx)
//	...
//	pc.End(ctx, span, observability.StatusOK, samples, stages, nil)
//
// Health:
//
//	health := observability.CheckAll(ctx, "cocopipe", version, checkers...)
package observability
