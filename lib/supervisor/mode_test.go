// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"testing"

	"github.com/bureau-foundation/fibertrace/lib/fiber"
	"github.com/bureau-foundation/fibertrace/lib/testutil"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, mode := range Modes() {
		parsed, err := ParseMode(string(mode))
		if err != nil || parsed != mode {
			t.Errorf("ParseMode(%q) = (%q, %v)", mode, parsed, err)
		}
	}
	if _, err := ParseMode("both"); err == nil {
		t.Error("ParseMode(both) succeeded")
	}
}

func TestInstallActivatesOneRealization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode          Mode
		wantFiberFork bool
		wantSpanStart bool
	}{
		{ModeManual, false, false},
		{ModeFibers, true, false},
		{ModeSpans, false, true},
	}
	for _, test := range tests {
		recorder := &testutil.Recorder{}
		installation, err := Install(test.mode, tracing.New(recorder, tracing.Options{}))
		if err != nil {
			t.Fatalf("Install(%s): %v", test.mode, err)
		}

		runtime := fiber.NewRuntime(installation.RuntimeOptions(fiber.Options{}))
		fiber.Run(context.Background(), runtime, func(ctx context.Context) (int, error) {
			_, span := installation.Spans.Start(ctx, "work")
			span.End()
			return 0, nil
		})
		if err := installation.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown(%s): %v", test.mode, err)
		}

		gotFork := len(recorder.OfKind(traceevent.KindFiberFork)) > 0
		gotSpan := len(recorder.OfKind(traceevent.KindEffectStart)) > 0
		if gotFork != test.wantFiberFork || gotSpan != test.wantSpanStart {
			t.Errorf("mode %s: fiber events %v span events %v, want %v %v",
				test.mode, gotFork, gotSpan, test.wantFiberFork, test.wantSpanStart)
		}
	}

	if _, err := Install("bogus", tracing.New(nil, tracing.Options{})); err == nil {
		t.Error("Install(bogus) succeeded")
	}
}
