// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package traceevent

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates event variants. The string values are protocol
// constants shared with every process that speaks the TRACE_EVENT
// line protocol.
type Kind string

const (
	// KindEffectStart marks the beginning of a traced computation.
	KindEffectStart Kind = "effect:start"

	// KindEffectEnd marks the completion of a traced computation. Exactly
	// one is emitted per effect:start id.
	KindEffectEnd Kind = "effect:end"

	// KindRetryAttempt is emitted between attempts of a retried
	// computation. Attempt is the 1-based number of the attempt that
	// just failed.
	KindRetryAttempt Kind = "retry:attempt"

	// KindFiberFork marks the creation of a fiber. ParentID is empty
	// only for a root fiber.
	KindFiberFork Kind = "fiber:fork"

	// KindFiberEnd marks a fiber that finished without interruption.
	KindFiberEnd Kind = "fiber:end"

	// KindFiberInterrupt marks a fiber that was interrupted (or, when
	// reported by the supervisor, ended abnormally).
	KindFiberInterrupt Kind = "fiber:interrupt"

	// KindSleepStart opens a suspension window for a fiber.
	KindSleepStart Kind = "sleep:start"

	// KindSleepEnd closes the suspension window opened by the matching
	// sleep:start. Never emitted for a sleep that was interrupted.
	KindSleepEnd Kind = "sleep:end"

	// KindFinalizer marks a scope finalizer starting to run.
	KindFinalizer Kind = "finalizer"

	// KindAcquire records the outcome of acquiring a scoped resource.
	KindAcquire Kind = "acquire"
)

// Kinds returns every event kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindEffectStart,
		KindEffectEnd,
		KindRetryAttempt,
		KindFiberFork,
		KindFiberEnd,
		KindFiberInterrupt,
		KindSleepStart,
		KindSleepEnd,
		KindFinalizer,
		KindAcquire,
	}
}

// Valid reports whether kind is one of the known event kinds.
func (kind Kind) Valid() bool {
	switch kind {
	case KindEffectStart, KindEffectEnd, KindRetryAttempt,
		KindFiberFork, KindFiberEnd, KindFiberInterrupt,
		KindSleepStart, KindSleepEnd,
		KindFinalizer, KindAcquire:
		return true
	}
	return false
}

// Result is the outcome recorded by effect:end and acquire events.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event is a single trace record. See the package documentation for
// which fields each Kind uses; unused fields are left zero and omitted
// from JSON.
type Event struct {
	// Type discriminates the variant.
	Type Kind `json:"type"`

	// Timestamp is Unix milliseconds at emission, non-decreasing per
	// emitter.
	Timestamp int64 `json:"timestamp"`

	// Seq is the emitter's logical clock: strictly increasing across all
	// events of one emitter, regardless of which goroutine emitted them.
	Seq uint64 `json:"seq,omitempty"`

	// ID identifies an effect, retry group, acquire or finalizer.
	ID string `json:"id,omitempty"`

	// FiberID identifies the fiber for fiber:* and sleep:* events.
	FiberID string `json:"fiberId,omitempty"`

	// ParentID is the forking fiber of a fiber:fork event.
	ParentID string `json:"parentId,omitempty"`

	// Label is the human-readable name of the traced unit.
	Label string `json:"label,omitempty"`

	// Result is set on effect:end and acquire.
	Result Result `json:"result,omitempty"`

	// Value is the JSON encoding of a successful effect's value.
	Value json.RawMessage `json:"value,omitempty"`

	// Error is the failure message on effect:end and acquire.
	Error string `json:"error,omitempty"`

	// Attempt is the 1-based number of the failed attempt on
	// retry:attempt.
	Attempt int `json:"attempt,omitempty"`

	// LastError is the failure message of that attempt.
	LastError string `json:"lastError,omitempty"`

	// Duration is the requested sleep in milliseconds on sleep:start.
	Duration int64 `json:"duration,omitempty"`
}

// SubjectID returns the identifier the event is about: FiberID for
// fiber and sleep events, ID for everything else.
func (event Event) SubjectID() string {
	if IsTaskEvent(event) || IsSuspensionEvent(event) {
		return event.FiberID
	}
	return event.ID
}

// IsTaskEvent reports whether the event belongs to the fiber lifecycle
// (fork, end, interrupt).
func IsTaskEvent(event Event) bool {
	switch event.Type {
	case KindFiberFork, KindFiberEnd, KindFiberInterrupt:
		return true
	}
	return false
}

// IsSuspensionEvent reports whether the event opens or closes a sleep
// window.
func IsSuspensionEvent(event Event) bool {
	switch event.Type {
	case KindSleepStart, KindSleepEnd:
		return true
	}
	return false
}

// IsTerminal reports whether the event ends its subject: effect:end,
// fiber:end or fiber:interrupt.
func IsTerminal(event Event) bool {
	switch event.Type {
	case KindEffectEnd, KindFiberEnd, KindFiberInterrupt:
		return true
	}
	return false
}

// ErrInvalidEvent is wrapped by every error returned from Validate.
var ErrInvalidEvent = errors.New("invalid trace event")

// Validate checks that the fields required by the event's kind are
// present. It does not check cross-event invariants.
func (event Event) Validate() error {
	if !event.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, event.Type)
	}

	switch event.Type {
	case KindEffectStart, KindFinalizer:
		if event.ID == "" {
			return missing(event.Type, "id")
		}
	case KindEffectEnd:
		if event.ID == "" {
			return missing(event.Type, "id")
		}
		if err := validResult(event); err != nil {
			return err
		}
	case KindAcquire:
		if event.ID == "" {
			return missing(event.Type, "id")
		}
		if err := validResult(event); err != nil {
			return err
		}
	case KindRetryAttempt:
		if event.ID == "" {
			return missing(event.Type, "id")
		}
		if event.Attempt < 1 {
			return fmt.Errorf("%w: %s attempt must be >= 1, got %d", ErrInvalidEvent, event.Type, event.Attempt)
		}
	case KindFiberFork, KindFiberEnd, KindFiberInterrupt, KindSleepEnd:
		if event.FiberID == "" {
			return missing(event.Type, "fiberId")
		}
	case KindSleepStart:
		if event.FiberID == "" {
			return missing(event.Type, "fiberId")
		}
		if event.Duration < 0 {
			return fmt.Errorf("%w: %s duration must not be negative", ErrInvalidEvent, event.Type)
		}
	}
	return nil
}

func validResult(event Event) error {
	switch event.Result {
	case ResultSuccess, ResultFailure:
		return nil
	case "":
		return missing(event.Type, "result")
	default:
		return fmt.Errorf("%w: %s has unknown result %q", ErrInvalidEvent, event.Type, event.Result)
	}
}

func missing(kind Kind, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrInvalidEvent, kind, field)
}
