// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/recording"
	"github.com/bureau-foundation/fibertrace/lib/tasktree"
)

type replayParams struct {
	cli.JSONOutput
	diagnose bool
}

func replayCommand(streams Streams) *cli.Command {
	var params replayParams
	return &cli.Command{
		Name:    "replay",
		Summary: "Verify a recording and show its task tree",
		Description: `Read a recording written by "fibertrace run --record", check its
digest, and print the task tree and event timeline it describes.

--diagnose prints every CBOR item of the file in diagnostic notation
instead. It skips verification, so it also works on damaged files.`,
		Usage: "fibertrace replay <recording> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("replay", pflag.ContinueOnError)
			params.BindJSONFlag(flagSet)
			flagSet.BoolVar(&params.diagnose, "diagnose", false, "print the raw CBOR items without verifying")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show a recorded run",
				Command:     "fibertrace replay run.ftr",
			},
			{
				Description: "Inspect a recording that fails verification",
				Command:     "fibertrace replay run.ftr --diagnose",
			},
		},
		Run: func(_ context.Context, args []string) error {
			return replay(streams, &params, args)
		},
	}
}

func replay(streams Streams, params *replayParams, args []string) error {
	if len(args) != 1 {
		return cli.Validation("expected exactly one recording path, got %d arguments", len(args))
	}
	path := args[0]

	if params.diagnose {
		return diagnoseRecording(streams, path)
	}

	loaded, err := recording.ReadFile(path)
	if err != nil {
		return recordingError(err)
	}

	store := tasktree.NewStore(0)
	for _, event := range loaded.Events {
		store.Emit(event)
	}
	snapshot := store.Snapshot()

	result := newReport(snapshot, false)
	result.Recording = &recordingSummary{
		RunID:       loaded.Header.RunID.String(),
		CreatedAt:   loaded.Header.CreatedAt.Format(time.RFC3339Nano),
		Compression: loaded.Header.Compression.String(),
		Digest:      digestString(loaded.Digest),
	}
	if done, err := params.EmitJSON(streams.Stdout, result); done {
		return err
	}

	fmt.Fprintf(streams.Stdout, "Recording %s (%s, %s compression, %d events)\n\n",
		result.Recording.RunID,
		loaded.Header.CreatedAt.UTC().Format(time.RFC3339),
		result.Recording.Compression,
		len(loaded.Events),
	)
	renderSnapshot(streams.Stdout, snapshot, false)
	return nil
}

func diagnoseRecording(streams Streams, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return recordingError(err)
	}
	defer file.Close()

	items, err := recording.Diagnose(file)
	for index, item := range items {
		fmt.Fprintf(streams.Stdout, "%d: %s\n", index, item)
	}
	if err != nil {
		return recordingError(err)
	}
	return nil
}

// recordingError categorizes a failure to read a recording.
func recordingError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cli.NotFound("%w", err)
	case errors.Is(err, recording.ErrFormat):
		return cli.Validation("%w", err).WithHint("The file is not a fibertrace recording.")
	case errors.Is(err, recording.ErrDigestMismatch),
		errors.Is(err, recording.ErrCorrupt),
		errors.Is(err, recording.ErrTruncated):
		return cli.Internal("%w", err).WithHint("Run 'fibertrace replay --diagnose' on the file to inspect what survived.")
	default:
		return cli.Internal("%w", err)
	}
}
