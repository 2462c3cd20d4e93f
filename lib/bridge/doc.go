// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge carries trace events across a process boundary.
//
// The traced process writes each event as one line on its ordinary
// output, tagged with [Prefix]:
//
//	TRACE_EVENT:{"type":"fiber:end","timestamp":1712,"seq":9,"fiberId":"#2"}
//
// Every other line is program output. [WriterSink] produces tagged
// lines; [Decoder] recovers events from arbitrarily chunked output,
// carrying partial lines between chunks and silently dropping tagged
// lines whose payload does not parse or has no known type. [Stream]
// runs a Decoder over an io.Reader in the background.
//
// [Host] owns the other side: it spawns the traced program in its own
// process group with stdout and stderr merged into one pipe, bounds how
// many programs run at once with a [Limiter], and hands back a
// [Session] whose event channel yields events in stream order. A
// session must be closed; Close kills the whole process group whether
// or not the program already exited.
package bridge
