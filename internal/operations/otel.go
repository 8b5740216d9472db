package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bopcli/internal/infrastructure"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "bopcli.operations"

// RunTracer wraps pipeline runs and steps in spans and records their metrics
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewRunTracer uses the global tracer provider. A nil metrics set disables
// metric recording but keeps spans.
func NewRunTracer(metrics *infrastructure.BusinessMetrics) *RunTracer {
	return &RunTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// StartRun opens the span covering a whole run
func (rt *RunTracer) StartRun(ctx context.Context, runID string, req RunRequest) (context.Context, trace.Span) {
	ctx, span := rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.input", req.Input),
			attribute.Bool("run.narrate", req.Narrate),
		),
	)
	infrastructure.RecordActiveRunChange(ctx, rt.metrics, 1)
	return ctx, span
}

// EndRun closes the run span and records the run metrics
func (rt *RunTracer) EndRun(ctx context.Context, span trace.Span, result *RunResult, err error) {
	infrastructure.RecordActiveRunChange(ctx, rt.metrics, -1)
	infrastructure.RecordRunMetrics(ctx, rt.metrics, string(result.Status), result.Duration(), err)

	span.SetAttributes(
		attribute.String("run.status", string(result.Status)),
		attribute.Int("run.records", result.RecordCount),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// StartStep opens a child span for one step
func (rt *RunTracer) StartStep(ctx context.Context, step Step) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", step.ID()),
		trace.WithAttributes(attribute.String("step.id", step.ID())),
	)
}

// EndStep closes a step span and records step metrics
func (rt *RunTracer) EndStep(ctx context.Context, span trace.Span, state *StepState, err error) {
	status := state.GetStatus()
	infrastructure.RecordStepMetrics(ctx, rt.metrics, state.ID, string(status), state.Duration())

	span.SetAttributes(attribute.String("step.status", string(status)))
	if status == StepStatusFailed && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordCounts records records produced and dropped by the data steps
func (rt *RunTracer) RecordCounts(ctx context.Context, state *RunState) {
	if state.Normalized != nil {
		infrastructure.RecordRecordCounts(ctx, rt.metrics, StepNormalize,
			state.Normalized.Report.OutputRows, state.Normalized.Report.Dropped())
	}
	if state.Derived != nil {
		infrastructure.RecordRecordCounts(ctx, rt.metrics, StepDerive, state.Derived.Report.OutputRows, 0)
	}
}
