// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// DefaultMaxLineBytes bounds a single line. Longer lines are discarded.
const DefaultMaxLineBytes = 1024 * 1024

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	// MaxLineBytes bounds the length of one line, excluding its
	// terminator. Zero means DefaultMaxLineBytes.
	MaxLineBytes int

	// RawLine, if set, receives every complete line that is not a
	// protocol line, without its terminator.
	RawLine func(line string)
}

// Decoder splits chunked output into lines and decodes protocol lines.
// It is not safe for concurrent use.
type Decoder struct {
	maxLineBytes int
	rawLine      func(string)

	// partial holds the unterminated tail of the previous chunks.
	partial []byte

	// discarding is set while skipping the rest of an oversized line.
	discarding bool

	dropped  int
	oversize int
}

// NewDecoder creates a Decoder.
func NewDecoder(options DecoderOptions) *Decoder {
	maxLineBytes := options.MaxLineBytes
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Decoder{maxLineBytes: maxLineBytes, rawLine: options.RawLine}
}

// Feed consumes chunk and returns the events completed by it, in the
// order their terminating newlines appear.
func (decoder *Decoder) Feed(chunk []byte) []traceevent.Event {
	var events []traceevent.Event
	for len(chunk) > 0 {
		newline := bytes.IndexByte(chunk, '\n')
		if newline < 0 {
			decoder.carry(chunk)
			break
		}

		segment := chunk[:newline]
		chunk = chunk[newline+1:]

		if decoder.discarding {
			decoder.discarding = false
			continue
		}
		if len(decoder.partial)+len(segment) > decoder.maxLineBytes {
			decoder.partial = decoder.partial[:0]
			decoder.oversize++
			continue
		}

		var line []byte
		if len(decoder.partial) > 0 {
			line = append(decoder.partial, segment...)
		} else {
			line = segment
		}
		if event, ok := decoder.line(line); ok {
			events = append(events, event)
		}
		decoder.partial = decoder.partial[:0]
	}
	return events
}

// Flush treats any buffered unterminated line as complete. Call it once
// the stream has ended: a process may exit without a final newline.
func (decoder *Decoder) Flush() []traceevent.Event {
	defer func() {
		decoder.partial = decoder.partial[:0]
		decoder.discarding = false
	}()
	if decoder.discarding || len(decoder.partial) == 0 {
		return nil
	}
	if event, ok := decoder.line(decoder.partial); ok {
		return []traceevent.Event{event}
	}
	return nil
}

// Dropped returns the number of protocol lines that failed to decode.
func (decoder *Decoder) Dropped() int { return decoder.dropped }

// Oversize returns the number of lines discarded for exceeding the
// line limit.
func (decoder *Decoder) Oversize() int { return decoder.oversize }

func (decoder *Decoder) carry(tail []byte) {
	if decoder.discarding {
		return
	}
	if len(decoder.partial)+len(tail) > decoder.maxLineBytes {
		decoder.partial = decoder.partial[:0]
		decoder.discarding = true
		decoder.oversize++
		return
	}
	decoder.partial = append(decoder.partial, tail...)
}

func (decoder *Decoder) line(line []byte) (traceevent.Event, bool) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	payload, tagged := bytes.CutPrefix(line, []byte(Prefix))
	if !tagged {
		if decoder.rawLine != nil {
			decoder.rawLine(string(line))
		}
		return traceevent.Event{}, false
	}
	event, ok := decodePayload(payload)
	if !ok {
		decoder.dropped++
	}
	return event, ok
}
