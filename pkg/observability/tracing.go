package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// TracerName is the instrumentation name for brandlens spans.
const TracerName = "brandlens"

// Span attribute keys
const (
	AttrRunID       = "run_id"
	AttrTarget      = "target"
	AttrUnits       = "units"
	AttrPosition    = "position"
	AttrSourceLabel = "source_label"
	AttrStage       = "stage"
	AttrProvider    = "provider"
	AttrMentioned   = "mentioned"
	AttrScore       = "visibility_score"
	AttrRank        = "rank"
	AttrConfidence  = "confidence"
	AttrErrorCode   = "error_code"
	AttrRetryable   = "retryable"
)

// Span names
const (
	SpanRun         = "brandlens.run"
	SpanUnit        = "brandlens.unit"
	SpanFetch       = "brandlens.stage.fetch"
	SpanEvaluate    = "brandlens.stage.evaluate"
	SpanCorroborate = "brandlens.stage.corroborate"
	SpanPersist     = "brandlens.persist"
)

// Tracer starts brandlens spans on the global tracer provider. With no
// provider installed the spans are no-ops.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// NewTracerFromProvider creates a Tracer from tp.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartRunSpan starts the root span of a run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID, target string, units int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanRun,
		trace.WithAttributes(
			attribute.String(AttrRunID, runID),
			attribute.String(AttrTarget, target),
			attribute.Int(AttrUnits, units),
		),
	)
}

// StartUnitSpan starts the span covering one unit.
func (t *Tracer) StartUnitSpan(ctx context.Context, position int, sourceLabel string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, SpanUnit,
		trace.WithAttributes(attribute.Int(AttrPosition, position)),
	)
	if sourceLabel != "" {
		span.SetAttributes(attribute.String(AttrSourceLabel, sourceLabel))
	}
	return ctx, span
}

// StartStageSpan starts a child span for one stage of a unit.
func (t *Tracer) StartStageSpan(ctx context.Context, name, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String(AttrStage, stage)),
	)
}

// SpanHelper sets brandlens attributes on a span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper wraps span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetResult records the verdict of a unit.
func (h *SpanHelper) SetResult(r visibility.MentionResult) {
	h.span.SetAttributes(
		attribute.Bool(AttrMentioned, r.Mentioned),
		attribute.Int(AttrScore, r.VisibilityScore),
		attribute.String(AttrRank, string(r.Rank)),
		attribute.String(AttrConfidence, string(r.Confidence)),
	)
}

// SetError records err on the span.
func (h *SpanHelper) SetError(err error, code string, retryable bool) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrRetryable, retryable),
	)
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
