// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/supervisor"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

// Env is what a scenario uses to fork, trace and sleep. It hides the
// differences between tracer modes.
type Env struct {
	Tracer *tracing.Tracer
	Mode   supervisor.Mode

	// Spans is the OpenTelemetry tracer; a no-op outside spans mode.
	Spans oteltrace.Tracer

	// Pace is the unit every scenario sleep is a multiple of.
	Pace time.Duration

	outputMu sync.Mutex
	output   io.Writer
}

// Say writes one ordinary (non-protocol) line of program output.
func (env *Env) Say(format string, args ...any) {
	env.outputMu.Lock()
	defer env.outputMu.Unlock()
	fmt.Fprintf(env.output, format+"\n", args...)
}

// Sleep suspends the current fiber for steps*Pace. Outside spans mode
// the sleep is traced.
func (env *Env) Sleep(ctx context.Context, steps int) error {
	duration := time.Duration(steps) * env.Pace
	if env.Mode == supervisor.ModeSpans {
		return fiber.Sleep(ctx, duration)
	}
	return env.Tracer.SleepWithTrace(ctx, duration)
}

// Step runs effect as one traced effect named label: a WithTrace
// bracket, or a span in spans mode.
func Step[T any](ctx context.Context, env *Env, label string, effect fiber.Effect[T]) (T, error) {
	if env.Mode != supervisor.ModeSpans {
		return tracing.WithTrace(env.Tracer, effect, label)(ctx)
	}

	ctx, span := env.Spans.Start(ctx, label)
	defer span.End()
	value, err := effect(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return value, err
}

// Retry runs effect with up to maxRetries retries spaced one Pace
// apart. Outside spans mode it is RetryWithTrace; in spans mode the
// whole loop is one span with an event per failed attempt.
func Retry[T any](ctx context.Context, env *Env, label string, maxRetries int, effect fiber.Effect[T]) (T, error) {
	if env.Mode != supervisor.ModeSpans {
		return tracing.RetryWithTrace(env.Tracer, effect, tracing.RetryOptions{
			MaxRetries: maxRetries,
			Label:      label,
			Delay:      env.Pace,
		})(ctx)
	}

	return Step(ctx, env, label, func(ctx context.Context) (T, error) {
		for attempt := 1; ; attempt++ {
			value, err := effect(ctx)
			if err == nil || attempt > maxRetries || fiber.Interrupted(ctx, err) {
				return value, err
			}
			oteltrace.SpanFromContext(ctx).AddEvent(fmt.Sprintf("attempt %d failed: %v", attempt, err))
			if err := fiber.Sleep(ctx, env.Pace); err != nil {
				return value, err
			}
		}
	})
}

// Fork starts effect on a child fiber labelled label. In manual mode
// the fork is traced by ForkWithTrace; otherwise the runtime's
// supervisor (if any) reports it.
func Fork[T any](ctx context.Context, env *Env, label string, effect fiber.Effect[T]) *fiber.Handle[T] {
	if env.Mode == supervisor.ModeManual {
		return tracing.ForkWithTrace(ctx, env.Tracer, effect, label)
	}
	return fiber.Fork(ctx, effect, fiber.WithLabel(label))
}

// Acquire obtains a resource inside scope and arranges for release to
// run when the scope closes. Outside spans mode this is
// AcquireReleaseWithTrace; in spans mode acquisition and release are
// each a span.
func Acquire[A any](ctx context.Context, env *Env, scope *fiber.Scope, label string, acquire fiber.Effect[A], release tracing.Release[A]) (A, error) {
	if env.Mode != supervisor.ModeSpans {
		return tracing.AcquireReleaseWithTrace(env.Tracer, scope, acquire, release, label)(ctx)
	}

	resource, err := Step(ctx, env, label+":acquire", acquire)
	if err != nil {
		return resource, err
	}
	err = scope.AddFinalizer(ctx, func(ctx context.Context, exit fiber.Exit) error {
		_, err := Step(ctx, env, label+":release", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, release(ctx, resource, exit)
		})
		return err
	})
	return resource, err
}
