package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordingTracer(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func TestRun_Success(t *testing.T) {
	sr, tp := recordingTracer(t)

	err := Run(context.Background(), tp.Tracer("test"), SpanToolRun, func(ctx context.Context) error {
		Event(ctx, EventTempKept, attribute.String("dir", "keep"))
		return nil
	}, attribute.String(AttrToolName, "muscle"))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, SpanToolRun, spans[0].Name())
	require.Equal(t, codes.Ok, spans[0].Status().Code)
	require.Contains(t, spans[0].Attributes(), attribute.String(AttrToolName, "muscle"))
	require.Len(t, spans[0].Events(), 1)
	require.Equal(t, EventTempKept, spans[0].Events()[0].Name)
}

func TestRun_Error(t *testing.T) {
	sr, tp := recordingTracer(t)
	boom := errors.New("boom")

	err := Run(context.Background(), tp.Tracer("test"), SpanFetchBackend, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Equal(t, "boom", spans[0].Status().Description)
}

func TestRun_Nested(t *testing.T) {
	sr, tp := recordingTracer(t)
	tracer := tp.Tracer("test")

	err := Run(context.Background(), tracer, SpanFetchAll, func(ctx context.Context) error {
		return Run(ctx, tracer, SpanFetchBackend, func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	child, parent := spans[0], spans[1]
	require.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
}

func TestRun_NilTracer(t *testing.T) {
	called := false
	err := Run(context.Background(), nil, "x", func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}
