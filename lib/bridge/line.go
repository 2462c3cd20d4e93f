// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// Prefix marks a protocol line. It must be the first bytes of the line.
const Prefix = "TRACE_EVENT:"

// EncodeLine returns the protocol line for event, including the
// trailing newline.
func EncodeLine(event traceevent.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	line := make([]byte, 0, len(Prefix)+len(payload)+1)
	line = append(line, Prefix...)
	line = append(line, payload...)
	line = append(line, '\n')
	return line, nil
}

// DecodeLine parses one line without its terminator. It reports false
// for lines that are not tagged, whose payload is not a JSON object, or
// whose type is missing or unknown. Field-level requirements are not
// checked: a well-tagged event with missing fields is still delivered.
func DecodeLine(line []byte) (traceevent.Event, bool) {
	payload, tagged := bytes.CutPrefix(line, []byte(Prefix))
	if !tagged {
		return traceevent.Event{}, false
	}
	return decodePayload(payload)
}

func decodePayload(payload []byte) (traceevent.Event, bool) {
	var event traceevent.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return traceevent.Event{}, false
	}
	if !event.Type.Valid() {
		return traceevent.Event{}, false
	}
	return event, true
}
