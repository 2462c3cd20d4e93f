// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/bridge"
	"github.com/bureau-foundation/fibertrace/lib/config"
	"github.com/bureau-foundation/fibertrace/lib/recording"
	"github.com/bureau-foundation/fibertrace/lib/tasktree"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
	"github.com/bureau-foundation/fibertrace/lib/treeview"
)

type runParams struct {
	configFlag
	cli.JSONOutput
	record string
	live   bool
	raw    bool
}

func runCommand(streams Streams) *cli.Command {
	var params runParams
	return &cli.Command{
		Name:    "run",
		Summary: "Run a traced program and show its task tree",
		Description: `Run a program, read the TRACE_EVENT lines it writes to stdout, and
rebuild its fiber tree from them.

When the program exits, the tree and the event timeline are printed.
With --live an interactive view follows the program while it runs.
Lines that are not trace events are kept as the program's output and
shown with --raw. The program's exit status becomes fibertrace's.`,
		Usage: "fibertrace run [flags] [--] <program> [args...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			// Flags after the program name belong to the program.
			flagSet.SetInterspersed(false)
			params.bind(flagSet)
			params.BindJSONFlag(flagSet)
			flagSet.StringVar(&params.record, "record", "", "write the events to a recording file")
			flagSet.BoolVar(&params.live, "live", false, "show an interactive view while the program runs")
			flagSet.BoolVar(&params.raw, "raw", false, "also print the program's non-trace output")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Trace the built-in demo program",
				Command:     "fibertrace run -- fibertrace demo --scenario fork",
			},
			{
				Description: "Record a run with lz4 compression configured in a file",
				Command:     "fibertrace run --config trace.yaml --record run.ftr -- ./worker",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			return runTraced(ctx, streams, &params, args)
		},
	}
}

func runTraced(ctx context.Context, streams Streams, params *runParams, args []string) error {
	if len(args) == 0 {
		return cli.Validation("a program to run is required").
			WithHint("Usage: fibertrace run [flags] -- <program> [args...]")
	}
	if params.live && params.OutputJSON {
		return cli.Validation("--live and --json cannot be combined")
	}
	if params.live && !cli.IsTerminal(streams.Stdout) {
		return cli.Validation("--live needs a terminal on stdout")
	}

	cfg, logger, err := params.load(streams)
	if err != nil {
		return err
	}
	logger = logger.With("command", "run", "program", args[0])

	store := tasktree.NewStore(0)
	sinks := tracing.MultiSink{store}

	var recorder *runRecorder
	if params.record != "" {
		recorder, err = openRecorder(cfg, params.record)
		if err != nil {
			return err
		}
		defer recorder.abandon()
		sinks = append(sinks, recorder.writer)
	}

	host := bridge.NewHost(bridge.HostOptions{
		Limiter:      bridge.NewLimiter(cfg.Bridge.MaxConcurrentHosts),
		GracePeriod:  cfg.Bridge.GracePeriod,
		MaxLineBytes: cfg.Bridge.MaxLineBytes,
		Logger:       logger,
	})
	session, err := host.Start(ctx, bridge.Command{
		Path:      args[0],
		Args:      args[1:],
		RawOutput: store.AddRaw,
	})
	if err != nil {
		var pathErr *exec.Error
		if errors.As(err, &pathErr) || errors.Is(err, os.ErrNotExist) {
			return cli.NotFound("%w", err)
		}
		return cli.Internal("%w", err)
	}
	defer session.Close()

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for event := range session.Events() {
			sinks.Emit(event)
		}
	}()

	finished := make(chan struct{})
	var waitErr error
	go func() {
		defer close(finished)
		waitErr = session.Wait(ctx)
		<-consumed
	}()

	if params.live {
		if err := runLiveView(ctx, store, finished, strings.Join(args, " ")); err != nil {
			return cli.Internal("live view: %w", err)
		}
		// Quitting the view before the program ends stops the program.
		session.Close()
	}
	<-finished

	snapshot := store.Snapshot()
	logger.Debug("program finished",
		"events", len(snapshot.Events),
		"tasks", len(snapshot.Forest),
		"pending", snapshot.Pending,
	)

	result := newReport(snapshot, params.raw || cfg.View.ShowRawOutput)
	if recorder != nil {
		summary, err := recorder.finish()
		if err != nil {
			return cli.Internal("writing recording: %w", err)
		}
		result.Recording = summary
		logger.Info("recording written", "path", summary.Path, "run_id", summary.RunID, "events", len(snapshot.Events))
	}

	exitCode, err := exitCodeOf(waitErr)
	if err != nil {
		return cli.Internal("waiting for %s: %w", args[0], err)
	}
	if exitCode != 0 {
		result.Exit = &exitSummary{Code: exitCode}
	}

	if !params.live {
		if done, err := params.EmitJSON(streams.Stdout, result); done {
			if err != nil {
				return err
			}
		} else {
			renderSnapshot(streams.Stdout, snapshot, params.raw || cfg.View.ShowRawOutput)
		}
	}

	if exitCode != 0 {
		return &cli.ExitError{Code: exitCode}
	}
	return nil
}

// exitCodeOf separates a program's non-zero exit, which is an ordinary
// outcome, from failures to run or wait for it.
func exitCodeOf(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal.
		return 1, nil
	}
	return 0, err
}

func runLiveView(ctx context.Context, store *tasktree.Store, finished <-chan struct{}, title string) error {
	model := treeview.NewModel(store, treeview.ModelOptions{
		Title: title,
		Done:  finished,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// runRecorder streams events into a recording file while the program
// runs.
type runRecorder struct {
	path   string
	file   *os.File
	writer *recording.Writer
	done   bool
}

func openRecorder(cfg *config.Config, name string) (*runRecorder, error) {
	compression, err := cfg.RecordingCompression()
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	path := cfg.RecordingPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, cli.Internal("creating recording directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, cli.Internal("creating recording: %w", err)
	}
	writer, err := recording.NewWriter(file, recording.WriterOptions{Compression: compression})
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, cli.Internal("starting recording: %w", err)
	}
	return &runRecorder{path: path, file: file, writer: writer}, nil
}

// finish writes the trailer and closes the file.
func (recorder *runRecorder) finish() (*recordingSummary, error) {
	recorder.done = true
	writeErr := recorder.writer.Close()
	closeErr := recorder.file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(recorder.path)
		return nil, fmt.Errorf("%s: %w", recorder.path, err)
	}
	header := recorder.writer.Header()
	return &recordingSummary{
		Path:        recorder.path,
		RunID:       header.RunID.String(),
		CreatedAt:   header.CreatedAt.Format(time.RFC3339Nano),
		Compression: header.Compression.String(),
	}, nil
}

// abandon removes a recording that was never finished.
func (recorder *runRecorder) abandon() {
	if recorder.done {
		return
	}
	recorder.writer.Close()
	recorder.file.Close()
	os.Remove(recorder.path)
}

func digestString(digest []byte) string {
	return hex.EncodeToString(digest)
}
