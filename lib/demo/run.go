// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bureau-foundation/fibertrace/lib/clock"
	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/supervisor"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

// DefaultPace is the sleep unit when Options.Pace is zero. It is long
// enough for a live view to show tasks moving between states.
const DefaultPace = 40 * time.Millisecond

// Options configures Run.
type Options struct {
	// Scenario names the program to run. Defaults to "all".
	Scenario string

	// Mode selects the instrumentation. Defaults to fibers.
	Mode supervisor.Mode

	// Sink receives every trace event.
	Sink tracing.Sink

	// Output receives the ordinary output lines. Defaults to
	// io.Discard.
	Output io.Writer

	Pace     time.Duration
	IDPrefix string
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Run executes a scenario on a fresh runtime wired for the requested
// mode and returns the scenario's error.
func Run(ctx context.Context, options Options) (err error) {
	if options.Scenario == "" {
		options.Scenario = "all"
	}
	if options.Mode == "" {
		options.Mode = supervisor.ModeFibers
	}
	if options.Output == nil {
		options.Output = io.Discard
	}
	if options.Pace <= 0 {
		options.Pace = DefaultPace
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	scenario, err := Lookup(options.Scenario)
	if err != nil {
		return err
	}

	tracer := tracing.New(options.Sink, tracing.Options{
		Clock:    options.Clock,
		Logger:   options.Logger,
		IDPrefix: options.IDPrefix,
	})
	installation, err := supervisor.Install(options.Mode, tracer)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := installation.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("shutting down span provider: %w", shutdownErr))
		}
	}()

	runtime := fiber.NewRuntime(installation.RuntimeOptions(fiber.Options{
		Clock:  options.Clock,
		Logger: options.Logger,
	}))
	env := &Env{
		Tracer: tracer,
		Mode:   options.Mode,
		Spans:  installation.Spans,
		Pace:   options.Pace,
		output: options.Output,
	}

	options.Logger.Debug("running demo scenario",
		"scenario", scenario.Name,
		"mode", options.Mode,
		"pace", options.Pace,
	)

	program := func(ctx context.Context) (struct{}, error) {
		return struct{}{}, scenario.Run(ctx, env)
	}
	switch options.Mode {
	case supervisor.ModeManual:
		program = tracing.RunProgramWithTrace(tracer, program, scenario.Name)
	case supervisor.ModeSpans:
		inner := program
		program = func(ctx context.Context) (struct{}, error) {
			return Step(ctx, env, scenario.Name, inner)
		}
	}

	_, err = fiber.Run(ctx, runtime, program, fiber.WithLabel(scenario.Name))
	return err
}
