// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package traceevent

import (
	"encoding/json"
	"fmt"
	"time"
)

func EffectStart(id, label string) Event {
	return Event{Type: KindEffectStart, ID: id, Label: label}
}

// EffectSucceeded builds an effect:end success event. The value is
// JSON-encoded immediately so later mutation by the caller cannot change
// what was recorded. Values that cannot be encoded are recorded as their
// fmt %v rendering.
func EffectSucceeded(id string, value any) Event {
	return Event{Type: KindEffectEnd, ID: id, Result: ResultSuccess, Value: EncodeValue(value)}
}

// EffectFailed builds an effect:end failure event carrying err's message.
func EffectFailed(id string, err error) Event {
	return Event{Type: KindEffectEnd, ID: id, Result: ResultFailure, Error: errorText(err)}
}

func RetryAttempt(id, label string, attempt int, lastError error) Event {
	return Event{Type: KindRetryAttempt, ID: id, Label: label, Attempt: attempt, LastError: errorText(lastError)}
}

// FiberFork builds a fiber:fork event. An empty parentID marks a root.
func FiberFork(fiberID, parentID, label string) Event {
	return Event{Type: KindFiberFork, FiberID: fiberID, ParentID: parentID, Label: label}
}

func FiberEnd(fiberID string) Event {
	return Event{Type: KindFiberEnd, FiberID: fiberID}
}

func FiberInterrupt(fiberID string) Event {
	return Event{Type: KindFiberInterrupt, FiberID: fiberID}
}

// SleepStart builds a sleep:start event; the duration is recorded in
// whole milliseconds.
func SleepStart(fiberID string, duration time.Duration) Event {
	return Event{Type: KindSleepStart, FiberID: fiberID, Duration: duration.Milliseconds()}
}

func SleepEnd(fiberID string) Event {
	return Event{Type: KindSleepEnd, FiberID: fiberID}
}

func Finalizer(id, label string) Event {
	return Event{Type: KindFinalizer, ID: id, Label: label}
}

func AcquireSucceeded(id, label string) Event {
	return Event{Type: KindAcquire, ID: id, Label: label, Result: ResultSuccess}
}

func AcquireFailed(id, label string, err error) Event {
	return Event{Type: KindAcquire, ID: id, Label: label, Result: ResultFailure, Error: errorText(err)}
}

// EncodeValue returns the JSON encoding of value, falling back to a JSON
// string of its %v rendering. A nil value encodes as nil (omitted).
func EncodeValue(value any) json.RawMessage {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("%v", value))
	}
	return data
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
