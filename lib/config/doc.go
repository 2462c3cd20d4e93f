// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for fibertrace.
//
// Configuration comes from a single file named either by the
// FIBERTRACE_CONFIG environment variable (via [Load]) or by the
// --config flag (via [LoadFile]). [Resolve] applies that precedence
// and falls back to [Default] when neither is given. There is no
// ~/.config discovery and no per-field environment override; values in
// the file are merged over the defaults and then validated.
//
// The only expansion performed is ${VAR} and ${VAR:-default} in
// recording.directory, so a shared config can say
// "${HOME}/.cache/fibertrace".
//
// Key exports:
//
//   - [Config] -- log level plus Bridge, Tracer, Recording and View
//   - [Default] -- the configuration used when no file is given
//   - [Load], [LoadFile], [Resolve] -- the entry points for loading
package config
