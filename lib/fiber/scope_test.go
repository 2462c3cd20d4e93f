// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fiber

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestScopeClosesLIFOOnce(t *testing.T) {
	t.Parallel()

	scope := NewScope()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		if err := scope.AddFinalizer(context.Background(), func(ctx context.Context, exit Exit) error {
			order = append(order, name+":"+exit.String())
			return nil
		}); err != nil {
			t.Fatalf("AddFinalizer: %v", err)
		}
	}

	if err := scope.Close(context.Background(), ExitFailure); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := scope.Close(context.Background(), ExitSuccess); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := strings.Join(order, ","); got != "c:failure,b:failure,a:failure" {
		t.Errorf("finalizer order = %s", got)
	}
}

func TestScopeRunsAllFinalizersAndJoinsErrors(t *testing.T) {
	t.Parallel()

	scope := NewScope()
	first := errors.New("first")
	ran := 0
	scope.AddFinalizer(context.Background(), func(ctx context.Context, exit Exit) error {
		ran++
		return first
	})
	scope.AddFinalizer(context.Background(), func(ctx context.Context, exit Exit) error {
		ran++
		panic("second")
	})

	err := scope.Close(context.Background(), ExitSuccess)
	if ran != 2 {
		t.Errorf("ran %d finalizers, want 2", ran)
	}
	if !errors.Is(err, first) {
		t.Errorf("Close error %v does not include first", err)
	}
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Errorf("Close error %v does not include the panic", err)
	}
}

func TestAddFinalizerAfterCloseRunsImmediately(t *testing.T) {
	t.Parallel()

	scope := NewScope()
	scope.Close(context.Background(), ExitInterrupted)

	var got Exit = -1
	scope.AddFinalizer(context.Background(), func(ctx context.Context, exit Exit) error {
		got = exit
		return nil
	})
	if got != ExitInterrupted {
		t.Errorf("late finalizer exit = %v, want interrupted", got)
	}
}

func TestScopedClosesOnEveryExitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body func(ctx context.Context) (int, error)
		want Exit
	}{
		{"success", func(ctx context.Context) (int, error) { return 1, nil }, ExitSuccess},
		{"failure", func(ctx context.Context) (int, error) { return 0, errors.New("x") }, ExitFailure},
		{"interrupted", func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, context.Cause(ctx)
		}, ExitInterrupted},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			var exits []Exit
			ctx, cancel := context.WithCancelCause(context.Background())
			if test.want == ExitInterrupted {
				cancel(ErrInterrupted)
			}
			defer cancel(nil)

			Scoped(ctx, func(ctx context.Context, scope *Scope) (int, error) {
				scope.AddFinalizer(ctx, func(finalizerContext context.Context, exit Exit) error {
					if finalizerContext.Err() != nil {
						t.Error("finalizer context is cancelled")
					}
					exits = append(exits, exit)
					return nil
				})
				return test.body(ctx)
			})
			if len(exits) != 1 || exits[0] != test.want {
				t.Errorf("finalizer exits = %v, want [%v]", exits, test.want)
			}
		})
	}
}

func TestScopedClosesOnPanic(t *testing.T) {
	t.Parallel()

	closed := 0
	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic was swallowed")
			}
		}()
		Scoped(context.Background(), func(ctx context.Context, scope *Scope) (int, error) {
			scope.AddFinalizer(ctx, func(ctx context.Context, exit Exit) error {
				closed++
				if exit != ExitFailure {
					t.Errorf("exit on panic = %v, want failure", exit)
				}
				return nil
			})
			panic("body")
		})
	}()
	if closed != 1 {
		t.Errorf("finalizer ran %d times, want 1", closed)
	}
}

func TestScopedSurfacesFinalizerErrorAfterSuccess(t *testing.T) {
	t.Parallel()

	releaseErr := errors.New("release failed")
	value, err := Scoped(context.Background(), func(ctx context.Context, scope *Scope) (int, error) {
		scope.AddFinalizer(ctx, func(ctx context.Context, exit Exit) error { return releaseErr })
		return 7, nil
	})
	if !errors.Is(err, releaseErr) {
		t.Fatalf("Scoped error = %v, want %v", err, releaseErr)
	}
	if value != 0 {
		t.Errorf("value = %d, want zero on finalizer failure", value)
	}
}
