// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/recording"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func stamp(event traceevent.Event, seq uint64, timestamp int64) traceevent.Event {
	event.Seq = seq
	event.Timestamp = timestamp
	return event
}

// writeRecording writes a small run with an interrupted child.
func writeRecording(t *testing.T, compression recording.Compression) (string, recording.Header) {
	t.Helper()
	events := []traceevent.Event{
		stamp(traceevent.FiberFork("#1", "", "main"), 1, 2000),
		stamp(traceevent.FiberFork("#2", "#1", "sleeper"), 2, 2001),
		stamp(traceevent.SleepStart("#2", 5*time.Second), 3, 2002),
		stamp(traceevent.FiberInterrupt("#2"), 4, 2020),
		stamp(traceevent.FiberEnd("#1"), 5, 2030),
	}
	path := filepath.Join(t.TempDir(), "run.ftr")
	header, err := recording.WriteFile(path, events, recording.WriterOptions{Compression: compression})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, header
}

func TestReplayText(t *testing.T) {
	path, header := writeRecording(t, recording.CompressionLZ4)

	stdout, _, err := execute(t, "replay", path)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{
		"Recording " + header.RunID.String(),
		"lz4 compression, 5 events",
		"#1 main [completed] 30ms",
		"└─ #2 sleeper [interrupted] 19ms",
		"sleep:start",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestReplayJSON(t *testing.T) {
	path, header := writeRecording(t, recording.CompressionNone)

	stdout, _, err := execute(t, "replay", path, "--json")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var result struct {
		Tasks     []json.RawMessage `json:"tasks"`
		Events    []json.RawMessage `json:"events"`
		Recording struct {
			RunID       string `json:"runId"`
			Compression string `json:"compression"`
			Digest      string `json:"digest"`
		} `json:"recording"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(result.Tasks) != 1 || len(result.Events) != 5 {
		t.Errorf("got %d roots and %d events, want 1 and 5", len(result.Tasks), len(result.Events))
	}
	if result.Recording.RunID != header.RunID.String() || result.Recording.Compression != "none" {
		t.Errorf("recording = %+v", result.Recording)
	}
	if len(result.Recording.Digest) != 64 {
		t.Errorf("digest = %q, want 32 hex-encoded bytes", result.Recording.Digest)
	}
}

func TestReplayDiagnose(t *testing.T) {
	path, _ := writeRecording(t, recording.CompressionZstd)

	stdout, _, err := execute(t, "replay", "--diagnose", path)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	// Header, five events, trailer.
	if len(lines) != 7 {
		t.Fatalf("got %d items, want 7:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "0: {") || !strings.Contains(lines[0], recording.Format) {
		t.Errorf("first item = %q, want the header", lines[0])
	}
}

func TestReplayErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.ftr")
	_, _, err := execute(t, "replay", missing)
	requireCategory(t, err, cli.CategoryNotFound)

	notRecording := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, notRecording, "just some text\n")
	_, _, err = execute(t, "replay", notRecording)
	requireCategory(t, err, cli.CategoryValidation)
	if !errors.Is(err, recording.ErrFormat) {
		t.Errorf("error = %v, want ErrFormat in the chain", err)
	}

	_, _, err = execute(t, "replay")
	requireCategory(t, err, cli.CategoryValidation)
}

func TestReplayTruncatedRecording(t *testing.T) {
	path, _ := writeRecording(t, recording.CompressionNone)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	writeFile(t, path, string(data[:len(data)-10]))

	_, _, err = execute(t, "replay", path)
	requireCategory(t, err, cli.CategoryInternal)
	if !strings.Contains(err.Error(), "--diagnose") {
		t.Errorf("error = %q, want the --diagnose hint", err)
	}
}
