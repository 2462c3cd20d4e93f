// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fiber

import (
	"context"
	"errors"
	"sync"
)

// Finalizer releases something a scope acquired. It receives how the
// scope exited.
type Finalizer func(ctx context.Context, exit Exit) error

// Scope runs registered finalizers exactly once, last-registered first,
// when it is closed.
type Scope struct {
	mu         sync.Mutex
	finalizers []Finalizer
	closed     bool
	exit       Exit
}

// NewScope returns an open scope.
func NewScope() *Scope {
	return &Scope{}
}

// AddFinalizer registers finalizer. If the scope is already closed the
// finalizer runs immediately with the scope's exit, so every registered
// finalizer runs exactly once.
func (scope *Scope) AddFinalizer(ctx context.Context, finalizer Finalizer) error {
	scope.mu.Lock()
	if scope.closed {
		exit := scope.exit
		scope.mu.Unlock()
		return finalizer(context.WithoutCancel(ctx), exit)
	}
	scope.finalizers = append(scope.finalizers, finalizer)
	scope.mu.Unlock()
	return nil
}

// Close runs the finalizers in reverse order and returns their joined
// errors. Every finalizer runs even if an earlier one fails. Only the
// first Close does anything; later calls return nil.
func (scope *Scope) Close(ctx context.Context, exit Exit) error {
	scope.mu.Lock()
	if scope.closed {
		scope.mu.Unlock()
		return nil
	}
	scope.closed = true
	scope.exit = exit
	finalizers := scope.finalizers
	scope.finalizers = nil
	scope.mu.Unlock()

	var errs []error
	for index := len(finalizers) - 1; index >= 0; index-- {
		if err := runFinalizer(ctx, finalizers[index], exit); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runFinalizer(ctx context.Context, finalizer Finalizer, exit Exit) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &PanicError{Value: recovered}
		}
	}()
	return finalizer(ctx, exit)
}

// Scoped runs body with a fresh scope and closes the scope when body
// finishes, whether it succeeds, fails, is interrupted or panics.
// Finalizers run under a context that is not cancelled by ctx, so
// release work can complete after an interruption. A finalizer error
// after a successful body becomes the result's error.
func Scoped[T any](ctx context.Context, body func(ctx context.Context, scope *Scope) (T, error)) (value T, err error) {
	scope := NewScope()
	exit := ExitFailure
	defer func() {
		closeErr := scope.Close(context.WithoutCancel(ctx), exit)
		if closeErr != nil && err == nil {
			var zero T
			value, err = zero, closeErr
		}
	}()

	value, err = body(ctx, scope)
	exit = ExitOf(ctx, err)
	return value, err
}
