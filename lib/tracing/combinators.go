// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// WithTrace wraps effect so that each run emits effect:start(id, label)
// and exactly one effect:end for the same id: success with the value,
// or failure with the error. A cancelled effect ends in failure. If the
// effect panics, a failure end is emitted and the panic continues.
func WithTrace[T any](tracer *Tracer, effect fiber.Effect[T], label string) fiber.Effect[T] {
	return func(ctx context.Context) (T, error) {
		id := tracer.NewID()
		tracer.Emit(traceevent.EffectStart(id, label))
		end := endOnce(tracer, id)
		defer end.abort()

		value, err := effect(ctx)
		if err != nil {
			end.fail(err)
		} else {
			end.succeed(value)
		}
		return value, err
	}
}

// ForkWithTrace forks effect as a child of the fiber running ctx.
//
// The parent's identity is read before the fork. The child emits
// fiber:interrupt if it ends by interruption and fiber:end otherwise;
// the parent emits fiber:fork(child, parent, label) once Fork returns.
// The two are authored by different goroutines, so their sequence
// numbers may come in either order. The returned handle is the one
// Fork produced.
func ForkWithTrace[T any](ctx context.Context, tracer *Tracer, effect fiber.Effect[T], label string) *fiber.Handle[T] {
	var parentID string
	if parent := fiber.Current(ctx); parent != nil {
		parentID = parent.ID()
	}

	handle := fiber.Fork(ctx, func(ctx context.Context) (value T, err error) {
		self := fiber.Current(ctx).ID()
		defer func() {
			tracer.Emit(fiberTerminal(ctx, self, err))
		}()
		return effect(ctx)
	}, fiber.WithLabel(label))

	tracer.Emit(traceevent.FiberFork(handle.Fiber().ID(), parentID, label))
	return handle
}

// SleepWithTrace suspends the current fiber for d, emitting sleep:start
// before and sleep:end after. An interrupted sleep emits no sleep:end
// and returns the interruption error. Outside a fiber there is no
// fiber id to attribute the sleep to, so nothing is emitted.
func (tracer *Tracer) SleepWithTrace(ctx context.Context, d time.Duration) error {
	current := fiber.Current(ctx)
	if current == nil {
		return fiber.Sleep(ctx, d)
	}

	tracer.Emit(traceevent.SleepStart(current.ID(), d))
	if err := fiber.Sleep(ctx, d); err != nil {
		return err
	}
	tracer.Emit(traceevent.SleepEnd(current.ID()))
	return nil
}

// RetryOptions configures RetryWithTrace.
type RetryOptions struct {
	// MaxRetries is the number of attempts after the first. Negative
	// values are treated as zero.
	MaxRetries int

	// Label names the retried computation.
	Label string

	// Delay, if positive, is slept (with fiber.Sleep) between attempts.
	Delay time.Duration
}

// RetryWithTrace runs effect up to 1+MaxRetries times under a single
// effect id. It emits effect:start before the first attempt,
// retry:attempt(n, lastError) once attempt n has failed and the delay
// before attempt n+1 has elapsed, and one effect:end carrying the successful value or the last
// attempt's error. An interruption is never retried: it ends the effect
// immediately in failure.
func RetryWithTrace[T any](tracer *Tracer, effect fiber.Effect[T], options RetryOptions) fiber.Effect[T] {
	attempts := 1 + max(options.MaxRetries, 0)
	return func(ctx context.Context) (T, error) {
		id := tracer.NewID()
		tracer.Emit(traceevent.EffectStart(id, options.Label))
		end := endOnce(tracer, id)
		defer end.abort()

		for attempt := 1; ; attempt++ {
			value, err := effect(ctx)
			if err == nil {
				end.succeed(value)
				return value, nil
			}
			if attempt >= attempts || fiber.Interrupted(ctx, err) {
				end.fail(err)
				return value, err
			}

			if options.Delay > 0 {
				if sleepErr := fiber.Sleep(ctx, options.Delay); sleepErr != nil {
					end.fail(sleepErr)
					var zero T
					return zero, sleepErr
				}
			}
			tracer.Emit(traceevent.RetryAttempt(id, options.Label, attempt, err))
		}
	}
}

// Release frees a resource obtained by AcquireReleaseWithTrace. exit is
// how the owning scope finished.
type Release[A any] func(ctx context.Context, resource A, exit fiber.Exit) error

// AcquireReleaseWithTrace wraps acquire so that its outcome is recorded
// as one acquire event, and on success registers release as a finalizer
// of scope. When the scope closes, the finalizer emits
// finalizer(newID, label+":release") and then runs release, exactly
// once whichever way the scope exits.
func AcquireReleaseWithTrace[A any](tracer *Tracer, scope *fiber.Scope, acquire fiber.Effect[A], release Release[A], label string) fiber.Effect[A] {
	return func(ctx context.Context) (resource A, err error) {
		id := tracer.NewID()
		recorded := false
		defer func() {
			if !recorded {
				tracer.Emit(traceevent.AcquireFailed(id, label, errAbandoned))
			}
		}()

		resource, err = acquire(ctx)
		recorded = true
		if err != nil {
			tracer.Emit(traceevent.AcquireFailed(id, label, err))
			return resource, err
		}
		tracer.Emit(traceevent.AcquireSucceeded(id, label))

		err = scope.AddFinalizer(ctx, func(ctx context.Context, exit fiber.Exit) error {
			tracer.Emit(traceevent.Finalizer(tracer.NewID(), label+":release"))
			return release(ctx, resource, exit)
		})
		return resource, err
	}
}

// RunProgramWithTrace wraps the program run by a root fiber so that the
// fiber itself is recorded: fiber:fork for the running fiber (with its
// parent, if it has one), the program traced as with WithTrace, then
// fiber:end or fiber:interrupt. Outside a fiber only the WithTrace
// bracket is emitted.
func RunProgramWithTrace[T any](tracer *Tracer, program fiber.Effect[T], label string) fiber.Effect[T] {
	traced := WithTrace(tracer, program, label)
	return func(ctx context.Context) (value T, err error) {
		self := fiber.Current(ctx)
		if self == nil {
			return traced(ctx)
		}

		var parentID string
		if parent := self.Parent(); parent != nil {
			parentID = parent.ID()
		}
		tracer.Emit(traceevent.FiberFork(self.ID(), parentID, label))
		defer func() {
			tracer.Emit(fiberTerminal(ctx, self.ID(), err))
		}()
		return traced(ctx)
	}
}

// errAbandoned is recorded when a traced effect exits without
// returning, by panic or runtime.Goexit.
var errAbandoned = errors.New("effect exited without returning")

// fiberTerminal picks the terminal event for a fiber that finished
// with err under ctx.
func fiberTerminal(ctx context.Context, fiberID string, err error) traceevent.Event {
	if fiber.ExitOf(ctx, err) == fiber.ExitInterrupted {
		return traceevent.FiberInterrupt(fiberID)
	}
	return traceevent.FiberEnd(fiberID)
}

// effectEnd guarantees a single effect:end per effect id.
type effectEnd struct {
	tracer *Tracer
	id     string
	done   bool
}

func endOnce(tracer *Tracer, id string) *effectEnd {
	return &effectEnd{tracer: tracer, id: id}
}

func (end *effectEnd) succeed(value any) {
	if end.done {
		return
	}
	end.done = true
	end.tracer.Emit(traceevent.EffectSucceeded(end.id, value))
}

func (end *effectEnd) fail(err error) {
	if end.done {
		return
	}
	end.done = true
	end.tracer.Emit(traceevent.EffectFailed(end.id, err))
}

// abort is deferred: if the effect never returned normally it records
// the panic value (or errAbandoned) as the failure, and re-raises the
// panic.
func (end *effectEnd) abort() {
	if end.done {
		return
	}
	recovered := recover()
	if recovered == nil {
		end.fail(errAbandoned)
		return
	}
	end.fail(fmt.Errorf("panic: %v", recovered))
	panic(recovered)
}
