// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/recording"
)

const tracedScript = `echo starting up
printf 'TRACE_EVENT:{"type":"fiber:fork","fiberId":"#1","label":"main","timestamp":1000,"seq":1}\n'
printf 'TRACE_EVENT:{"type":"fiber:fork","fiberId":"#2","parentId":"#1","label":"worker","timestamp":1001,"seq":2}\n'
printf 'TRACE_EVENT:{"type":"effect:start","id":"effect-1","label":"fetch","timestamp":1002,"seq":3}\n'
printf 'TRACE_EVENT:{"type":"effect:end","id":"effect-1","result":"success","value":3,"timestamp":1004,"seq":4}\n'
printf 'TRACE_EVENT:{"type":"fiber:end","fiberId":"#2","timestamp":1005,"seq":5}\n'
printf 'TRACE_EVENT:{"type":"fiber:end","fiberId":"#1","timestamp":1010,"seq":6}\n'
echo shutting down`

func TestRunRendersTreeAndTimeline(t *testing.T) {
	stdout, _, err := execute(t, "run", "--", "/bin/sh", "-c", tracedScript)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{
		"#1 main [completed] 10ms",
		"└─ #2 worker [completed] 4ms",
		"Timeline:",
		"effect:start",
		"fetch",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "starting up") {
		t.Errorf("raw output shown without --raw:\n%s", stdout)
	}
}

func TestRunRawShowsProgramOutput(t *testing.T) {
	stdout, _, err := execute(t, "run", "--raw", "--", "/bin/sh", "-c", tracedScript)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout, "Output:\nstarting up\nshutting down") {
		t.Errorf("stdout missing the program output:\n%s", stdout)
	}
}

func TestRunJSON(t *testing.T) {
	stdout, _, err := execute(t, "run", "--json", "--", "/bin/sh", "-c", tracedScript)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var result struct {
		Tasks []struct {
			Task struct {
				ID    string `json:"id"`
				State string `json:"state"`
			} `json:"task"`
			Children []json.RawMessage `json:"children"`
		} `json:"tasks"`
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Task.ID != "#1" || result.Tasks[0].Task.State != "completed" {
		t.Fatalf("tasks = %+v", result.Tasks)
	}
	if len(result.Tasks[0].Children) != 1 {
		t.Errorf("root has %d children, want 1", len(result.Tasks[0].Children))
	}
	if len(result.Events) != 6 {
		t.Errorf("got %d events, want 6", len(result.Events))
	}
}

func TestRunPassesExitStatusThrough(t *testing.T) {
	stdout, _, err := execute(t, "run", "--", "/bin/sh", "-c", tracedScript+"\nexit 3")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("error = %v, want exit code 3", err)
	}
	if !strings.Contains(stdout, "#1 main [completed]") {
		t.Errorf("tree not rendered before the exit status:\n%s", stdout)
	}
}

func TestRunRecordThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.ftr")
	if _, _, err := execute(t, "run", "--record", path, "--", "/bin/sh", "-c", tracedScript); err != nil {
		t.Fatalf("run: %v", err)
	}

	loaded, err := recording.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(loaded.Events) != 6 {
		t.Fatalf("recorded %d events, want 6", len(loaded.Events))
	}
	if loaded.Header.Compression != recording.CompressionZstd {
		t.Errorf("compression = %s, want the configured default zstd", loaded.Header.Compression)
	}

	stdout, _, err := execute(t, "replay", path)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(stdout, loaded.Header.RunID.String()) || !strings.Contains(stdout, "└─ #2 worker [completed]") {
		t.Errorf("replay output:\n%s", stdout)
	}
}

func TestRunRejectsBadInvocations(t *testing.T) {
	_, _, err := execute(t, "run")
	requireCategory(t, err, cli.CategoryValidation)

	_, _, err = execute(t, "run", "--live", "--", "/bin/true")
	requireCategory(t, err, cli.CategoryValidation)

	_, _, err = execute(t, "run", "--live", "--json", "--", "/bin/true")
	requireCategory(t, err, cli.CategoryValidation)

	_, _, err = execute(t, "run", "--", filepath.Join(t.TempDir(), "missing-program"))
	requireCategory(t, err, cli.CategoryNotFound)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fibertrace.yaml")
	writeFile(t, path, "bridge:\n  max_concurrent_hosts: 0\n")

	_, _, err := execute(t, "run", "--config", path, "--", "/bin/true")
	requireCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(err.Error(), "max_concurrent_hosts") {
		t.Errorf("error = %q, want the offending field", err)
	}
}

func TestRunLeavesProgramFlagsAlone(t *testing.T) {
	stdout, _, err := execute(t, "run", "--raw", "/bin/sh", "-c", "echo --json")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout, "Output:\n--json") {
		t.Errorf("stdout:\n%s", stdout)
	}
}
