package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrToolName     = "tool.name"
	AttrToolBinary   = "tool.binary"
	AttrToolParams   = "tool.params"
	AttrFormat       = "seq.format"
	AttrRecordCount  = "seq.records"
	AttrFetchBackend = "fetch.backend"
	AttrAccessions   = "fetch.accessions"
	AttrCacheHit     = "cache.hit"
	AttrErrorKind    = "error.kind"
)

// Span names.
const (
	SpanToolRun      = "tool.run"
	SpanFetchBackend = "fetch.backend"
	SpanFetchAll     = "fetch.summaries"
)

// Event names.
const (
	EventTempKept   = "tool.temp_kept"
	EventCacheStore = "cache.store"
)

// Run opens a span named name around fn and records its outcome. A nil
// tracer runs fn untraced.
func Run(ctx context.Context, tracer trace.Tracer, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	if tracer == nil {
		return fn(ctx)
	}
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	End(span, err)
	return err
}

// End sets span status from err.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// Event adds an event to the span carried by ctx, if any.
func Event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
