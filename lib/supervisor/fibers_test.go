// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/testutil"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

func TestFiberTracerCoversUnwrappedFibers(t *testing.T) {
	t.Parallel()

	recorder := &testutil.Recorder{}
	tracer := tracing.New(recorder, tracing.Options{})
	runtime := fiber.NewRuntime(fiber.Options{Supervisor: NewFiberTracer(tracer)})

	_, err := fiber.Run(context.Background(), runtime, func(ctx context.Context) (int, error) {
		ok := fiber.Fork(ctx, func(ctx context.Context) (int, error) { return 1, nil }, fiber.WithLabel("ok"))
		failing := fiber.Fork(ctx, func(ctx context.Context) (int, error) {
			return 0, errors.New("broken")
		}, fiber.WithLabel("failing"))
		ok.Join(ctx)
		failing.Join(ctx)
		return 0, nil
	}, fiber.WithLabel("main"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	forks := recorder.OfKind(traceevent.KindFiberFork)
	if len(forks) != 3 {
		t.Fatalf("fiber:fork events = %d, want 3", len(forks))
	}
	if forks[0].FiberID != "#1" || forks[0].ParentID != "" || forks[0].Label != "main" {
		t.Errorf("root fork = %+v", forks[0])
	}
	for _, fork := range forks[1:] {
		if fork.ParentID != "#1" {
			t.Errorf("child fork %+v has parent %q, want #1", fork, fork.ParentID)
		}
	}

	terminal := make(map[string]traceevent.Kind)
	for _, event := range recorder.Events() {
		if traceevent.IsTerminal(event) {
			if _, seen := terminal[event.FiberID]; seen {
				t.Errorf("fiber %s has more than one terminal event", event.FiberID)
			}
			terminal[event.FiberID] = event.Type
		}
	}
	want := map[string]traceevent.Kind{
		"#1": traceevent.KindFiberEnd,
		"#2": traceevent.KindFiberEnd,
		"#3": traceevent.KindFiberInterrupt,
	}
	for id, kind := range want {
		if terminal[id] != kind {
			t.Errorf("fiber %s terminal = %q, want %q", id, terminal[id], kind)
		}
	}

	events := recorder.Events()
	if last := events[len(events)-1]; last.Type != traceevent.KindFiberEnd || last.FiberID != "#1" {
		t.Errorf("last event = %+v, want root fiber:end", last)
	}
}

func TestFiberTracerReportsInterruption(t *testing.T) {
	t.Parallel()

	recorder := &testutil.Recorder{}
	tracer := tracing.New(recorder, tracing.Options{})
	runtime := fiber.NewRuntime(fiber.Options{Supervisor: NewFiberTracer(tracer)})

	fiber.Run(context.Background(), runtime, func(ctx context.Context) (int, error) {
		fiber.Fork(ctx, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, context.Cause(ctx)
		})
		return 0, nil
	})

	interrupts := recorder.OfKind(traceevent.KindFiberInterrupt)
	if len(interrupts) != 1 || interrupts[0].FiberID != "#2" {
		t.Errorf("fiber:interrupt events = %+v, want one for #2", interrupts)
	}
}
