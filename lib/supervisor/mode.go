// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

// Mode selects how a run is traced beyond the manual combinators.
type Mode string

const (
	// ModeManual relies on the combinators alone.
	ModeManual Mode = "manual"

	// ModeFibers installs a FiberTracer on the runtime.
	ModeFibers Mode = "fibers"

	// ModeSpans routes OpenTelemetry spans through a SpanTracer.
	ModeSpans Mode = "spans"
)

// Modes lists the valid modes.
func Modes() []Mode { return []Mode{ModeManual, ModeFibers, ModeSpans} }

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	for _, mode := range Modes() {
		if string(mode) == name {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown tracer mode %q (valid: manual, fibers, spans)", name)
}

// Installation is the wiring produced by Install.
type Installation struct {
	Mode Mode

	// Supervisor goes into fiber.Options. Nil unless ModeFibers.
	Supervisor fiber.Supervisor

	// Spans is the OpenTelemetry tracer programs start spans on. In
	// ModeSpans it feeds the SpanTracer; otherwise it is a no-op tracer
	// so instrumented code runs unchanged.
	Spans oteltrace.Tracer

	provider *sdktrace.TracerProvider
}

// Install builds the wiring for mode. Exactly one automatic
// realization is active per Installation, so fiber and span events are
// never both produced for the same run.
func Install(mode Mode, tracer *tracing.Tracer) (*Installation, error) {
	installation := &Installation{
		Mode:  mode,
		Spans: noop.NewTracerProvider().Tracer("fibertrace"),
	}
	switch mode {
	case ModeManual:
	case ModeFibers:
		installation.Supervisor = NewFiberTracer(tracer)
	case ModeSpans:
		installation.provider = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithSpanProcessor(NewSpanTracer(tracer)),
		)
		installation.Spans = installation.provider.Tracer("fibertrace")
	default:
		return nil, fmt.Errorf("unknown tracer mode %q", mode)
	}
	return installation, nil
}

// RuntimeOptions returns fiber.Options carrying the installation's
// supervisor merged over base.
func (installation *Installation) RuntimeOptions(base fiber.Options) fiber.Options {
	if installation.Supervisor != nil {
		base.Supervisor = installation.Supervisor
	}
	return base
}

// Shutdown releases the span provider, if any.
func (installation *Installation) Shutdown(ctx context.Context) error {
	if installation.provider == nil {
		return nil
	}
	return installation.provider.Shutdown(ctx)
}
