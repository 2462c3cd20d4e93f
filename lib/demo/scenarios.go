// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/fibertrace/lib/fiber"
)

// Scenario is one named demo program.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Scenarios lists every scenario, "all" last.
func Scenarios() []Scenario {
	return []Scenario{
		{"basic", "two sequential effects with a sleep", runBasic},
		{"fork", "three workers forked and joined", runFork},
		{"retry", "a flaky request that succeeds on its third attempt", runRetry},
		{"resource", "a scoped connection released after a query", runResource},
		{"interrupt", "a long sleeper interrupted by its parent", runInterrupt},
		{"all", "every scenario above, each in its own fiber", runAll},
	}
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, error) {
	for _, scenario := range Scenarios() {
		if scenario.Name == name {
			return scenario, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q (valid: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the scenario names in listing order.
func Names() []string {
	var names []string
	for _, scenario := range Scenarios() {
		names = append(names, scenario.Name)
	}
	return names
}

func runBasic(ctx context.Context, env *Env) error {
	settings, err := Step(ctx, env, "load-config", func(ctx context.Context) (map[string]int, error) {
		env.Say("reading configuration")
		if err := env.Sleep(ctx, 1); err != nil {
			return nil, err
		}
		return map[string]int{"batch": 6, "factor": 7}, nil
	})
	if err != nil {
		return err
	}

	product, err := Step(ctx, env, "compute", func(ctx context.Context) (int, error) {
		return settings["batch"] * settings["factor"], nil
	})
	if err != nil {
		return err
	}
	env.Say("basic: computed %d", product)
	return nil
}

func runFork(ctx context.Context, env *Env) error {
	handles := make([]*fiber.Handle[int], 3)
	for index := range handles {
		steps := index + 1
		handles[index] = Fork(ctx, env, fmt.Sprintf("worker-%d", steps), func(ctx context.Context) (int, error) {
			return Step(ctx, env, fmt.Sprintf("job-%d", steps), func(ctx context.Context) (int, error) {
				if err := env.Sleep(ctx, steps); err != nil {
					return 0, err
				}
				env.Say("worker-%d finished", steps)
				return steps * 10, nil
			})
		})
	}

	total := 0
	for _, handle := range handles {
		value, err := handle.Join(ctx)
		if err != nil {
			return fmt.Errorf("joining %s: %w", handle.Fiber().Label(), err)
		}
		total += value
	}
	env.Say("fork: workers produced %d", total)
	return nil
}

func runRetry(ctx context.Context, env *Env) error {
	attempts := 0
	response, err := Retry(ctx, env, "flaky-request", 3, func(ctx context.Context) (string, error) {
		attempts++
		env.Say("request attempt %d", attempts)
		if attempts < 3 {
			return "", fmt.Errorf("transient failure %d", attempts)
		}
		return "200 OK", nil
	})
	if err != nil {
		return err
	}
	env.Say("retry: %s after %d attempts", response, attempts)
	return nil
}

// connection stands in for a pooled client.
type connection struct {
	name string
}

func runResource(ctx context.Context, env *Env) error {
	rows, err := fiber.Scoped(ctx, func(ctx context.Context, scope *fiber.Scope) (int, error) {
		conn, err := Acquire(ctx, env, scope, "connection",
			func(ctx context.Context) (*connection, error) {
				env.Say("opening connection")
				return &connection{name: "db-primary"}, nil
			},
			func(ctx context.Context, conn *connection, exit fiber.Exit) error {
				env.Say("closing %s after %s", conn.name, exit)
				return nil
			})
		if err != nil {
			return 0, err
		}

		return Step(ctx, env, "query", func(ctx context.Context) (int, error) {
			if err := env.Sleep(ctx, 1); err != nil {
				return 0, err
			}
			env.Say("query on %s returned 3 rows", conn.name)
			return 3, nil
		})
	})
	if err != nil {
		return err
	}
	env.Say("resource: read %d rows", rows)
	return nil
}

func runInterrupt(ctx context.Context, env *Env) error {
	sleeper := Fork(ctx, env, "long-sleeper", func(ctx context.Context) (struct{}, error) {
		env.Say("sleeper going to sleep")
		return struct{}{}, env.Sleep(ctx, 1000)
	})

	if err := env.Sleep(ctx, 2); err != nil {
		return err
	}
	sleeper.Interrupt()

	_, err := sleeper.Join(ctx)
	if !errors.Is(err, fiber.ErrInterrupted) {
		return fmt.Errorf("sleeper ended with %v, want interruption", err)
	}
	env.Say("interrupt: sleeper stopped")
	return nil
}

func runAll(ctx context.Context, env *Env) error {
	for _, scenario := range Scenarios() {
		if scenario.Name == "all" {
			continue
		}
		handle := Fork(ctx, env, scenario.Name, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, scenario.Run(ctx, env)
		})
		if _, err := handle.Join(ctx); err != nil {
			return fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}
	return nil
}
