// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package traceevent

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestKindsAreValidAndDistinct(t *testing.T) {
	t.Parallel()

	seen := make(map[Kind]bool)
	for _, kind := range Kinds() {
		if !kind.Valid() {
			t.Errorf("Kinds() contains invalid kind %q", kind)
		}
		if seen[kind] {
			t.Errorf("Kinds() lists %q twice", kind)
		}
		seen[kind] = true
	}
	if len(seen) != 10 {
		t.Errorf("Kinds() has %d entries, want 10", len(seen))
	}
	for _, kind := range []Kind{"", "effect", "fiber:start", "EFFECT:START"} {
		if kind.Valid() {
			t.Errorf("Kind(%q).Valid() = true", kind)
		}
	}
}

func TestClassifiersPartitionLifecycleAndTiming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event      Event
		task       bool
		suspension bool
		terminal   bool
	}{
		{EffectStart("e", "step"), false, false, false},
		{EffectSucceeded("e", 1), false, false, true},
		{RetryAttempt("e", "r", 1, errors.New("x")), false, false, false},
		{FiberFork("#1", "", "root"), true, false, false},
		{FiberEnd("#1"), true, false, true},
		{FiberInterrupt("#1"), true, false, true},
		{SleepStart("#1", time.Second), false, true, false},
		{SleepEnd("#1"), false, true, false},
		{Finalizer("e", "db:release"), false, false, false},
		{AcquireSucceeded("e", "db"), false, false, false},
	}
	for _, test := range tests {
		if got := IsTaskEvent(test.event); got != test.task {
			t.Errorf("IsTaskEvent(%s) = %v, want %v", test.event.Type, got, test.task)
		}
		if got := IsSuspensionEvent(test.event); got != test.suspension {
			t.Errorf("IsSuspensionEvent(%s) = %v, want %v", test.event.Type, got, test.suspension)
		}
		if got := IsTerminal(test.event); got != test.terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", test.event.Type, got, test.terminal)
		}
		if IsTaskEvent(test.event) && IsSuspensionEvent(test.event) {
			t.Errorf("%s classified as both task and suspension event", test.event.Type)
		}
	}
}

func TestSubjectID(t *testing.T) {
	t.Parallel()

	if got := FiberFork("#3", "#1", "worker").SubjectID(); got != "#3" {
		t.Errorf("fiber:fork SubjectID = %q, want #3", got)
	}
	if got := SleepStart("#4", time.Millisecond).SubjectID(); got != "#4" {
		t.Errorf("sleep:start SubjectID = %q, want #4", got)
	}
	if got := AcquireFailed("effect-9", "db", errors.New("refused")).SubjectID(); got != "effect-9" {
		t.Errorf("acquire SubjectID = %q, want effect-9", got)
	}
}

func TestEffectSucceededEncodesValueEagerly(t *testing.T) {
	t.Parallel()

	values := []string{"a"}
	event := EffectSucceeded("e", values)
	values[0] = "mutated"

	if string(event.Value) != `["a"]` {
		t.Errorf("Value = %s, want [\"a\"]", event.Value)
	}
	if event.Result != ResultSuccess {
		t.Errorf("Result = %q, want success", event.Result)
	}
}

func TestEffectSucceededUnencodableValue(t *testing.T) {
	t.Parallel()

	event := EffectSucceeded("e", math.Inf(1))
	var text string
	if err := json.Unmarshal(event.Value, &text); err != nil {
		t.Fatalf("fallback value is not a JSON string: %v (%s)", err, event.Value)
	}
	if text != "+Inf" {
		t.Errorf("fallback value = %q, want +Inf", text)
	}
}

func TestEffectSucceededNilValueOmitted(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(EffectSucceeded("e", nil))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), `"value"`) {
		t.Errorf("nil value serialized: %s", data)
	}
}

func TestJSONFieldNamesMatchLineProtocol(t *testing.T) {
	t.Parallel()

	event := RetryAttempt("effect-1", "fetch", 2, errors.New("timeout"))
	event.Timestamp = 42
	event.Seq = 7
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"type":"retry:attempt","timestamp":42,"seq":7,"id":"effect-1","label":"fetch","attempt":2,"lastError":"timeout"}`
	if string(data) != want {
		t.Errorf("Marshal =\n  %s\nwant\n  %s", data, want)
	}

	fork := FiberFork("#2", "#1", "child")
	data, err = json.Marshal(fork)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want = `{"type":"fiber:fork","timestamp":0,"fiberId":"#2","parentId":"#1","label":"child"}`
	if string(data) != want {
		t.Errorf("Marshal =\n  %s\nwant\n  %s", data, want)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := []Event{
		EffectStart("e", ""),
		EffectFailed("e", errors.New("boom")),
		RetryAttempt("e", "r", 1, nil),
		FiberFork("#1", "", ""),
		FiberEnd("#1"),
		FiberInterrupt("#1"),
		SleepStart("#1", 0),
		SleepEnd("#1"),
		Finalizer("e", "x:release"),
		AcquireSucceeded("e", "x"),
	}
	for _, event := range valid {
		if err := event.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", event.Type, err)
		}
	}

	invalid := map[string]Event{
		"unknown type":         {Type: "effect:pause", ID: "e"},
		"missing id":           {Type: KindEffectStart},
		"missing result":       {Type: KindEffectEnd, ID: "e"},
		"bad result":           {Type: KindAcquire, ID: "e", Result: "maybe"},
		"zero attempt":         {Type: KindRetryAttempt, ID: "e"},
		"missing fiber id":     {Type: KindFiberEnd},
		"negative sleep":       {Type: KindSleepStart, FiberID: "#1", Duration: -1},
		"fork without fiber":   {Type: KindFiberFork, ParentID: "#1"},
		"sleep end no fiber":   {Type: KindSleepEnd, ID: "#1"},
		"finalizer missing id": {Type: KindFinalizer, Label: "x"},
	}
	for name, event := range invalid {
		err := event.Validate()
		if err == nil {
			t.Errorf("%s: Validate = nil, want error", name)
			continue
		}
		if !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("%s: error %v does not wrap ErrInvalidEvent", name, err)
		}
	}
}
