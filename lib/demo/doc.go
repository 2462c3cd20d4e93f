// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package demo contains small traced programs used to exercise the
// whole pipeline: "fibertrace demo" runs one in-process, and
// "fibertrace run -- fibertrace demo --emit" runs one as the sandboxed
// child whose tagged lines the host decodes.
//
// Each scenario is written once against [Env] and adapts to the tracer
// mode: in manual mode every fiber is forked with ForkWithTrace and the
// root is wrapped in RunProgramWithTrace; in fibers mode fibers are
// forked plainly and reported by the runtime supervisor; in spans mode
// effects are OpenTelemetry spans and fibers are not reported. Every
// scenario also writes ordinary output lines so the host has to
// separate them from protocol lines.
package demo
