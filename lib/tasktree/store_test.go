// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tasktree

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/fibertrace/lib/clock"
	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/supervisor"
	"github.com/bureau-foundation/fibertrace/lib/testutil"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

func TestStoreLogAndForestAgree(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	for _, event := range lifecycle() {
		store.Add(event)
	}

	snapshot := store.Snapshot()
	if len(snapshot.Events) != len(lifecycle()) {
		t.Errorf("snapshot has %d events, want %d", len(snapshot.Events), len(lifecycle()))
	}
	if len(snapshot.Forest) != 1 || snapshot.Forest[0].Count() != 4 {
		t.Errorf("snapshot forest = %+v", snapshot.Forest)
	}
	if store.Len() != len(lifecycle()) || len(store.Tasks()) != 4 {
		t.Errorf("Len = %d, tasks = %d", store.Len(), len(store.Tasks()))
	}

	store.Clear()
	if store.Len() != 0 || len(store.Forest()) != 0 || len(store.Tasks()) != 0 {
		t.Error("Clear left state behind")
	}
}

func TestStoreChangedCoalesces(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	for range 5 {
		store.Add(traceevent.FiberEnd("#1"))
	}
	testutil.RequireReceive(t, store.Changed(), 5*time.Second, "change notification")
	select {
	case <-store.Changed():
		t.Error("more than one pending notification")
	default:
	}
}

func TestStoreRawOutputBounded(t *testing.T) {
	t.Parallel()

	store := NewStore(3)
	for index := range 5 {
		store.AddRaw(fmt.Sprintf("line %d", index))
	}
	snapshot := store.Snapshot()
	if len(snapshot.Raw) != 3 || snapshot.Raw[0] != "line 2" || snapshot.Raw[2] != "line 4" {
		t.Errorf("raw = %q, want the last three lines", snapshot.Raw)
	}
	if snapshot.RawDropped != 2 {
		t.Errorf("RawDropped = %d, want 2", snapshot.RawDropped)
	}
}

func TestStoreRawOutputWrapsRepeatedly(t *testing.T) {
	t.Parallel()

	store := NewStore(4)
	for index := range 11 {
		store.AddRaw(fmt.Sprintf("line %d", index))
	}
	snapshot := store.Snapshot()
	want := []string{"line 7", "line 8", "line 9", "line 10"}
	if !slices.Equal(snapshot.Raw, want) {
		t.Errorf("raw = %q, want %q", snapshot.Raw, want)
	}
	if snapshot.RawDropped != 7 {
		t.Errorf("RawDropped = %d, want 7", snapshot.RawDropped)
	}

	store.Clear()
	store.AddRaw("fresh")
	snapshot = store.Snapshot()
	if !slices.Equal(snapshot.Raw, []string{"fresh"}) || snapshot.RawDropped != 0 {
		t.Errorf("after Clear: raw = %q dropped = %d", snapshot.Raw, snapshot.RawDropped)
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	store.Add(traceevent.FiberFork("#1", "", "main"))
	store.Add(traceevent.FiberFork("#2", "#1", "child"))
	snapshot := store.Snapshot()
	snapshot.Forest[0].Task.Children[0] = "mutated"
	snapshot.Events[0].FiberID = "mutated"

	fresh := store.Snapshot()
	if fresh.Forest[0].Task.Children[0] != "#2" || fresh.Events[0].FiberID != "#1" {
		t.Error("mutating a snapshot changed the store")
	}
}

func TestStoreAsTracerSinkForSupervisedRun(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	fake := clock.Fake(time.UnixMilli(10_000))
	tracer := tracing.New(store, tracing.Options{Clock: fake})
	runtime := fiber.NewRuntime(fiber.Options{
		Supervisor: supervisor.NewFiberTracer(tracer),
		Clock:      fake,
	})

	_, err := fiber.Run(context.Background(), runtime, func(ctx context.Context) (int, error) {
		var handles []*fiber.Handle[int]
		for index := range 3 {
			handles = append(handles, fiber.Fork(ctx, func(ctx context.Context) (int, error) {
				inner := fiber.Fork(ctx, func(ctx context.Context) (int, error) { return index, nil })
				return inner.Join(ctx)
			}, fiber.WithLabel(fmt.Sprintf("worker-%d", index))))
		}
		for _, handle := range handles {
			if _, err := handle.Join(ctx); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}, fiber.WithLabel("main"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	forest := store.Forest()
	if len(forest) != 1 {
		t.Fatalf("forest has %d roots, want 1", len(forest))
	}
	if forest[0].Task.Label != "main" || forest[0].Count() != 7 {
		t.Errorf("root %q has %d tasks, want main with 7", forest[0].Task.Label, forest[0].Count())
	}
	forest[0].Walk(func(node Node, depth int) {
		if node.Task.State != StateCompleted {
			t.Errorf("task %s ended %s, want completed", node.Task.ID, node.Task.State)
		}
	})
}

func TestStoreConcurrentWritersAndReaders(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	var group sync.WaitGroup
	for writer := range 4 {
		group.Add(1)
		go func() {
			defer group.Done()
			for index := range 50 {
				id := fmt.Sprintf("#%d-%d", writer, index)
				store.Emit(traceevent.FiberFork(id, "", "w"))
				store.Emit(traceevent.FiberEnd(id))
			}
		}()
	}
	group.Add(1)
	go func() {
		defer group.Done()
		for range 50 {
			snapshot := store.Snapshot()
			for _, root := range snapshot.Forest {
				_ = root.Count()
			}
		}
	}()
	group.Wait()

	if len(store.Tasks()) != 200 {
		t.Errorf("tasks = %d, want 200", len(store.Tasks()))
	}
}
