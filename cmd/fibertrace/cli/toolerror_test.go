// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestToolError_ErrorWithoutHint(t *testing.T) {
	err := Validation("missing recording path")
	if err.Error() != "missing recording path" {
		t.Errorf("Error() = %q, want %q", err.Error(), "missing recording path")
	}
}

func TestToolError_ErrorWithHint(t *testing.T) {
	err := Validation("missing recording path").WithHint("Pass the file written by 'fibertrace run --record'.")

	want := "missing recording path\n\nPass the file written by 'fibertrace run --record'."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestToolError_WithHintReturnsReceiver(t *testing.T) {
	original := NotFound("no such scenario")
	if chained := original.WithHint("try --scenario all"); chained != original {
		t.Error("WithHint should return the same pointer")
	}
}

func TestToolError_UnwrapReachesCause(t *testing.T) {
	err := Internal("reading recording: %w", fs.ErrNotExist)
	wrapped := fmt.Errorf("replay: %w", err)

	if !errors.Is(wrapped, fs.ErrNotExist) {
		t.Error("errors.Is should find the cause through ToolError")
	}
	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("errors.As should find the ToolError")
	}
	if toolErr.Category != CategoryInternal {
		t.Errorf("Category = %q, want %q", toolErr.Category, CategoryInternal)
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 3}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatal("ExitError does not expose ExitCode")
	}
	if coder.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", coder.ExitCode())
	}
	if err.Error() != "exit code 3" {
		t.Errorf("Error() = %q", err.Error())
	}
}
