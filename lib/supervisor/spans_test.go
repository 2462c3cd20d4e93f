// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"slices"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/bureau-foundation/fibertrace/lib/testutil"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

func TestSpanTracerPairsSpans(t *testing.T) {
	t.Parallel()

	recorder := &testutil.Recorder{}
	spanRecorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewSpanTracer(tracing.New(recorder, tracing.Options{}))),
		sdktrace.WithSpanProcessor(spanRecorder),
	)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()
	otelTracer := provider.Tracer("test")

	ctx, outer := otelTracer.Start(context.Background(), "load")
	_, inner := otelTracer.Start(ctx, "parse")
	inner.SetStatus(codes.Error, "unexpected token")
	inner.End()
	outer.SetStatus(codes.Ok, "")
	outer.End()

	want := []traceevent.Kind{
		traceevent.KindEffectStart,
		traceevent.KindEffectStart,
		traceevent.KindEffectEnd,
		traceevent.KindEffectEnd,
	}
	if got := recorder.Kinds(); !slices.Equal(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}

	events := recorder.Events()
	ended := spanRecorder.Ended()
	if len(ended) != 2 {
		t.Fatalf("span recorder saw %d ended spans, want 2", len(ended))
	}
	innerID := ended[0].SpanContext().SpanID().String()
	outerID := ended[1].SpanContext().SpanID().String()

	if events[0].ID != outerID || events[0].Label != "load" {
		t.Errorf("first start = %+v, want %s load", events[0], outerID)
	}
	if events[1].ID != innerID || events[1].Label != "parse" {
		t.Errorf("second start = %+v, want %s parse", events[1], innerID)
	}
	if events[2].ID != innerID || events[2].Result != traceevent.ResultFailure || events[2].Error != "unexpected token" {
		t.Errorf("inner end = %+v", events[2])
	}
	if events[3].ID != outerID || events[3].Result != traceevent.ResultSuccess {
		t.Errorf("outer end = %+v", events[3])
	}
}

func TestSpanTracerErrorWithoutDescription(t *testing.T) {
	t.Parallel()

	recorder := &testutil.Recorder{}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewSpanTracer(tracing.New(recorder, tracing.Options{}))),
	)
	defer provider.Shutdown(context.Background())

	_, span := provider.Tracer("test").Start(context.Background(), "silent")
	span.SetStatus(codes.Error, "")
	span.End()

	ends := recorder.OfKind(traceevent.KindEffectEnd)
	if len(ends) != 1 || ends[0].Result != traceevent.ResultFailure || ends[0].Error == "" {
		t.Errorf("effect:end = %+v, want failure with a message", ends)
	}
}
