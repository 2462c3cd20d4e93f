// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the fibertrace
// binary.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When they are not injected (go install, go run, test runs) [Current]
// fills the commit and dirty flag from the VCS stamp the Go toolchain
// embeds in the binary, so "fibertrace version" still names the source
// it was built from.
package version
