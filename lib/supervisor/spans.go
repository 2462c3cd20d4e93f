// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

// SpanTracer is a span processor that turns each span into an
// effect:start (when the span starts) and an effect:end (when it ends)
// with the hex span id as the effect id and the span name as the
// label. A span whose status is Error ends in failure carrying the
// status description; any other status is success.
type SpanTracer struct {
	tracer *tracing.Tracer
}

// NewSpanTracer returns a span processor emitting through tracer.
func NewSpanTracer(tracer *tracing.Tracer) *SpanTracer {
	return &SpanTracer{tracer: tracer}
}

// OnStart implements sdktrace.SpanProcessor.
func (processor *SpanTracer) OnStart(parent context.Context, span sdktrace.ReadWriteSpan) {
	processor.tracer.Emit(traceevent.EffectStart(span.SpanContext().SpanID().String(), span.Name()))
}

// OnEnd implements sdktrace.SpanProcessor.
func (processor *SpanTracer) OnEnd(span sdktrace.ReadOnlySpan) {
	id := span.SpanContext().SpanID().String()
	status := span.Status()
	if status.Code == codes.Error {
		description := status.Description
		if description == "" {
			description = "span ended with error status"
		}
		processor.tracer.Emit(traceevent.EffectFailed(id, errors.New(description)))
		return
	}
	processor.tracer.Emit(traceevent.EffectSucceeded(id, nil))
}

// Shutdown implements sdktrace.SpanProcessor. Events are emitted
// synchronously, so there is nothing to flush.
func (processor *SpanTracer) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (processor *SpanTracer) ForceFlush(context.Context) error { return nil }

var _ sdktrace.SpanProcessor = (*SpanTracer)(nil)
