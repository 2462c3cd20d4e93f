// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestApplyBuildSettingsFillsDefaults(t *testing.T) {
	build := Build{Version: "0.1.0-dev", Commit: "unknown", BuildTime: "unknown"}
	applyBuildSettings(&build, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-10-01T09:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})

	if build.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want the first 12 characters of the revision", build.Commit)
	}
	if build.BuildTime != "2026-10-01T09:00:00Z" {
		t.Errorf("BuildTime = %q", build.BuildTime)
	}
	if !build.Dirty {
		t.Error("Dirty = false, want true")
	}
}

func TestApplyBuildSettingsKeepsInjectedValues(t *testing.T) {
	build := Build{Commit: "abc1234", BuildTime: "2026-09-30T00:00:00Z"}
	applyBuildSettings(&build, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "ffffffffffffffff"},
		{Key: "vcs.time", Value: "2026-10-01T09:00:00Z"},
	})
	if build.Commit != "abc1234" || build.BuildTime != "2026-09-30T00:00:00Z" {
		t.Errorf("injected values overwritten: %+v", build)
	}
}

func TestInfoAndFull(t *testing.T) {
	build := Build{
		Version:   "1.2.0",
		Commit:    "abc1234",
		Dirty:     true,
		BuildTime: "2026-10-01T09:00:00Z",
		GoVersion: "go1.25.6",
		Platform:  "linux/amd64",
	}
	if got, want := build.Info(), "1.2.0 (abc1234-dirty, 2026-10-01T09:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	full := build.Full()
	if !strings.HasPrefix(full, build.Info()) || !strings.Contains(full, "Go: go1.25.6") || !strings.Contains(full, "Platform: linux/amd64") {
		t.Errorf("Full() = %q", full)
	}
}

func TestCurrentReportsRuntime(t *testing.T) {
	build := Current()
	if build.Version != Version {
		t.Errorf("Version = %q, want %q", build.Version, Version)
	}
	if build.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", build.GoVersion, runtime.Version())
	}
	if build.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", build.Platform)
	}
}
