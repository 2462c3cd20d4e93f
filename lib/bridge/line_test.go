// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// everyVariant returns one fully populated event of each kind, stamped
// the way a Tracer would stamp them.
func everyVariant() []traceevent.Event {
	events := []traceevent.Event{
		traceevent.EffectStart("effect-1", "load config"),
		traceevent.EffectSucceeded("effect-1", map[string]any{"port": 8080, "hosts": []string{"a", "b"}}),
		traceevent.EffectFailed("effect-2", errors.New("connection refused")),
		traceevent.RetryAttempt("effect-3", "fetch", 2, errors.New("timeout <after 3s>")),
		traceevent.FiberFork("#1", "", "main"),
		traceevent.FiberFork("#2", "#1", "worker \"α\""),
		traceevent.FiberEnd("#2"),
		traceevent.FiberInterrupt("#3"),
		traceevent.SleepStart("#2", 1500*time.Millisecond),
		traceevent.SleepEnd("#2"),
		traceevent.Finalizer("effect-4", "db:release"),
		traceevent.AcquireSucceeded("effect-5", "db"),
		traceevent.AcquireFailed("effect-6", "cache", errors.New("no route")),
	}
	for index := range events {
		events[index].Timestamp = 1_700_000_000_000 + int64(index)
		events[index].Seq = uint64(index + 1)
	}
	return events
}

func TestEncodeDecodeRoundTripsEveryVariant(t *testing.T) {
	t.Parallel()

	covered := make(map[traceevent.Kind]bool)
	for _, event := range everyVariant() {
		covered[event.Type] = true

		line, err := EncodeLine(event)
		if err != nil {
			t.Fatalf("EncodeLine(%s): %v", event.Type, err)
		}
		if !bytes.HasPrefix(line, []byte(Prefix)) || !bytes.HasSuffix(line, []byte("\n")) {
			t.Fatalf("EncodeLine(%s) = %q, want tagged newline-terminated line", event.Type, line)
		}
		if bytes.Count(line, []byte("\n")) != 1 {
			t.Fatalf("EncodeLine(%s) contains an embedded newline: %q", event.Type, line)
		}

		decoded := NewDecoder(DecoderOptions{}).Feed(line)
		if len(decoded) != 1 {
			t.Fatalf("decoding %q yielded %d events", line, len(decoded))
		}
		if !reflect.DeepEqual(decoded[0], event) {
			t.Errorf("round trip mismatch\n  got  %+v\n  want %+v", decoded[0], event)
		}
	}
	for _, kind := range traceevent.Kinds() {
		if !covered[kind] {
			t.Errorf("round trip does not cover %s", kind)
		}
	}
}

func TestDecodeLineRejections(t *testing.T) {
	t.Parallel()

	rejected := []string{
		`noise`,
		`trace_event:{"type":"fiber:end","fiberId":"a"}`,
		` TRACE_EVENT:{"type":"fiber:end","fiberId":"a"}`,
		`TRACE_EVENT:`,
		`TRACE_EVENT:not json`,
		`TRACE_EVENT:{"fiberId":"a"}`,
		`TRACE_EVENT:{"type":"fiber:teleport","fiberId":"a"}`,
		`TRACE_EVENT:["fiber:end"]`,
		`TRACE_EVENT:{"type":42}`,
	}
	for _, line := range rejected {
		if event, ok := DecodeLine([]byte(line)); ok {
			t.Errorf("DecodeLine(%q) accepted %+v", line, event)
		}
	}

	event, ok := DecodeLine([]byte(`TRACE_EVENT:{"type":"fiber:end","fiberId":"a","timestamp":1,"extra":true}`))
	if !ok || event.FiberID != "a" {
		t.Errorf("DecodeLine with unknown field = (%+v, %v)", event, ok)
	}
}
