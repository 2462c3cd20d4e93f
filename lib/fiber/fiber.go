// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fiber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/fibertrace/lib/clock"
)

// Effect is a unit of work run on a fiber. It must honor ctx: once the
// fiber is interrupted, ctx is done and the effect should return.
type Effect[T any] func(ctx context.Context) (T, error)

// ErrInterrupted is the cancellation cause of an interrupted fiber.
var ErrInterrupted = errors.New("fiber interrupted")

// Exit classifies how a fiber (or a scope) finished.
type Exit int

const (
	ExitSuccess Exit = iota
	ExitFailure
	ExitInterrupted
)

func (exit Exit) String() string {
	switch exit {
	case ExitSuccess:
		return "success"
	case ExitFailure:
		return "failure"
	case ExitInterrupted:
		return "interrupted"
	default:
		return "exit(" + strconv.Itoa(int(exit)) + ")"
	}
}

// ExitOf classifies the outcome of an effect that ran under ctx.
func ExitOf(ctx context.Context, err error) Exit {
	switch {
	case err == nil:
		return ExitSuccess
	case Interrupted(ctx, err):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// Interrupted reports whether err is the result of interruption rather
// than an ordinary failure: either it wraps ErrInterrupted, or ctx is
// done and err is ctx's error or cancellation cause.
func Interrupted(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInterrupted) {
		return true
	}
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, ctx.Err()) || errors.Is(err, context.Cause(ctx))
}

// PanicError is the failure of a fiber whose effect panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fiber panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Supervisor observes every fiber the runtime starts and ends.
//
// OnStart runs synchronously on the forking goroutine before the new
// fiber's effect begins, so the parent's start is always reported
// before any of its children's. OnEnd runs on the fiber's own
// goroutine after all of its children have ended and before Join
// returns. Implementations must be safe for concurrent use.
type Supervisor interface {
	OnStart(fiber *Fiber, parent *Fiber)
	OnEnd(fiber *Fiber, exit Exit, err error)
}

// Options configures a Runtime.
type Options struct {
	// Supervisor, if set, is notified of every fiber start and end.
	Supervisor Supervisor

	// Clock drives Sleep. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives debug-level lifecycle records. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Runtime owns fiber identity allocation and the supervisor hook. One
// Runtime is created per run; fibers forked inside it inherit it.
type Runtime struct {
	supervisor Supervisor
	clock      clock.Clock
	logger     *slog.Logger
	lastID     atomic.Uint64
}

// NewRuntime creates a Runtime.
func NewRuntime(options Options) *Runtime {
	runtime := &Runtime{
		supervisor: options.Supervisor,
		clock:      options.Clock,
		logger:     options.Logger,
	}
	if runtime.clock == nil {
		runtime.clock = clock.Real()
	}
	if runtime.logger == nil {
		runtime.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return runtime
}

// Clock returns the runtime's time source.
func (runtime *Runtime) Clock() clock.Clock { return runtime.clock }

func (runtime *Runtime) nextFiberID() string {
	return "#" + strconv.FormatUint(runtime.lastID.Add(1), 10)
}

// Fiber is the identity and lifecycle of one running effect.
type Fiber struct {
	id      string
	label   string
	parent  *Fiber
	runtime *Runtime
	cancel  context.CancelCauseFunc
	done    chan struct{}

	mu       sync.Mutex
	children []*Fiber
}

// ID returns the fiber's identifier, unique within its Runtime.
func (fiber *Fiber) ID() string { return fiber.id }

// Label returns the name given with WithLabel, or "".
func (fiber *Fiber) Label() string { return fiber.label }

// Parent returns the forking fiber, or nil for a root fiber.
func (fiber *Fiber) Parent() *Fiber { return fiber.parent }

// Runtime returns the runtime the fiber belongs to.
func (fiber *Fiber) Runtime() *Runtime { return fiber.runtime }

// Done is closed once the fiber and all of its children have ended.
func (fiber *Fiber) Done() <-chan struct{} { return fiber.done }

// Interrupt cancels the fiber's context with ErrInterrupted. It does
// not wait; use Done or Handle.Join for that. Interrupting a finished
// fiber has no effect.
func (fiber *Fiber) Interrupt() { fiber.cancel(ErrInterrupted) }

func (fiber *Fiber) adopt(child *Fiber) {
	fiber.mu.Lock()
	defer fiber.mu.Unlock()
	fiber.children = append(fiber.children, child)
}

func (fiber *Fiber) disown(child *Fiber) {
	fiber.mu.Lock()
	defer fiber.mu.Unlock()
	for index, candidate := range fiber.children {
		if candidate == child {
			fiber.children = append(fiber.children[:index], fiber.children[index+1:]...)
			return
		}
	}
}

// reapChildren interrupts every child still running and waits for it.
// Children forked while earlier ones were being reaped are picked up by
// the next round.
func (fiber *Fiber) reapChildren() {
	for {
		fiber.mu.Lock()
		pending := append([]*Fiber(nil), fiber.children...)
		fiber.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, child := range pending {
			child.Interrupt()
		}
		for _, child := range pending {
			<-child.done
		}
	}
}

type fiberKey struct{}

// Current returns the fiber running ctx, or nil outside any fiber.
func Current(ctx context.Context) *Fiber {
	fiber, _ := ctx.Value(fiberKey{}).(*Fiber)
	return fiber
}

// ForkOption customizes a forked fiber.
type ForkOption func(*forkConfig)

type forkConfig struct {
	label string
}

// WithLabel names the fiber. The label is reported to the supervisor.
func WithLabel(label string) ForkOption {
	return func(config *forkConfig) { config.label = label }
}

// Handle is the caller's reference to a forked fiber.
type Handle[T any] struct {
	fiber *Fiber
	value T
	err   error
	exit  Exit
}

// Fiber returns the forked fiber's identity.
func (handle *Handle[T]) Fiber() *Fiber { return handle.fiber }

// Done is closed once the fiber has ended.
func (handle *Handle[T]) Done() <-chan struct{} { return handle.fiber.done }

// Interrupt requests interruption of the fiber without waiting.
func (handle *Handle[T]) Interrupt() { handle.fiber.Interrupt() }

// Join waits for the fiber to end and returns its result. If ctx is
// done first, Join returns ctx's cancellation cause and the fiber keeps
// running.
func (handle *Handle[T]) Join(ctx context.Context) (T, error) {
	select {
	case <-handle.fiber.done:
		return handle.value, handle.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}

// Exit reports how the fiber finished. Only meaningful after Done is
// closed.
func (handle *Handle[T]) Exit() Exit { return handle.exit }

// Run executes effect as a root fiber of runtime and waits for it and
// all of its descendants to end. Cancelling ctx interrupts the fiber.
func Run[T any](ctx context.Context, runtime *Runtime, effect Effect[T], options ...ForkOption) (T, error) {
	handle := start(ctx, runtime, nil, effect, options)
	<-handle.fiber.done
	return handle.value, handle.err
}

// Fork starts effect on a child of the fiber running ctx and returns
// immediately. The child is interrupted if it is still running when
// its parent's effect returns.
//
// Fork panics if ctx does not belong to a fiber; start root fibers
// with Run.
func Fork[T any](ctx context.Context, effect Effect[T], options ...ForkOption) *Handle[T] {
	parent := Current(ctx)
	if parent == nil {
		panic("fiber: Fork called outside a fiber; use Run to start a root fiber")
	}
	return start(ctx, parent.runtime, parent, effect, options)
}

func start[T any](ctx context.Context, runtime *Runtime, parent *Fiber, effect Effect[T], options []ForkOption) *Handle[T] {
	var config forkConfig
	for _, option := range options {
		option(&config)
	}

	fiberContext, cancel := context.WithCancelCause(ctx)
	fiber := &Fiber{
		id:      runtime.nextFiberID(),
		label:   config.label,
		parent:  parent,
		runtime: runtime,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	fiberContext = context.WithValue(fiberContext, fiberKey{}, fiber)

	if parent != nil {
		parent.adopt(fiber)
	}
	if runtime.supervisor != nil {
		runtime.supervisor.OnStart(fiber, parent)
	}
	runtime.logger.Debug("fiber started", "fiber", fiber.id, "parent", parentID(parent), "label", fiber.label)

	handle := &Handle[T]{fiber: fiber}
	go func() {
		value, err := execute(fiberContext, effect)
		exit := ExitOf(fiberContext, err)
		if _, panicked := err.(*PanicError); panicked {
			exit = ExitFailure
			runtime.logger.Error("fiber panicked", "fiber", fiber.id, "error", err)
		}

		fiber.reapChildren()

		handle.value, handle.err, handle.exit = value, err, exit
		if runtime.supervisor != nil {
			runtime.supervisor.OnEnd(fiber, exit, err)
		}
		runtime.logger.Debug("fiber ended", "fiber", fiber.id, "exit", exit.String())

		if parent != nil {
			parent.disown(fiber)
		}
		cancel(nil)
		close(fiber.done)
	}()
	return handle
}

func execute[T any](ctx context.Context, effect Effect[T]) (value T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			var zero T
			value, err = zero, &PanicError{Value: recovered, Stack: debug.Stack()}
		}
	}()
	return effect(ctx)
}

func parentID(parent *Fiber) string {
	if parent == nil {
		return ""
	}
	return parent.id
}
