// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

// FiberTracer emits fiber:fork when the runtime starts a fiber and
// fiber:end or fiber:interrupt when it ends. A fiber that fails is
// reported as interrupted: from the scheduler's point of view it did
// not complete normally.
type FiberTracer struct {
	tracer *tracing.Tracer
}

// NewFiberTracer returns a supervisor emitting through tracer.
func NewFiberTracer(tracer *tracing.Tracer) *FiberTracer {
	return &FiberTracer{tracer: tracer}
}

// OnStart implements fiber.Supervisor.
func (supervisor *FiberTracer) OnStart(started *fiber.Fiber, parent *fiber.Fiber) {
	var parentID string
	if parent != nil {
		parentID = parent.ID()
	}
	supervisor.tracer.Emit(traceevent.FiberFork(started.ID(), parentID, started.Label()))
}

// OnEnd implements fiber.Supervisor.
func (supervisor *FiberTracer) OnEnd(ended *fiber.Fiber, exit fiber.Exit, err error) {
	if exit == fiber.ExitSuccess {
		supervisor.tracer.Emit(traceevent.FiberEnd(ended.ID()))
		return
	}
	supervisor.tracer.Emit(traceevent.FiberInterrupt(ended.ID()))
}

var _ fiber.Supervisor = (*FiberTracer)(nil)
