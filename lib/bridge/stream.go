// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// StreamOptions configures Stream.
type StreamOptions struct {
	DecoderOptions

	// ReadBufferBytes is the size of each read. Zero means 32 KiB.
	ReadBufferBytes int

	// Buffer is the capacity of the returned channel.
	Buffer int

	// OnError, if set, receives a read error other than EOF (or a
	// closed file, which is how a consumer is torn down).
	OnError func(error)
}

// Stream decodes reader in a background goroutine and delivers events
// on the returned channel in stream order. The channel is closed when
// reader reaches EOF or fails, or when ctx is done. The goroutine checks
// ctx between reads; to abandon a read that is blocked, close reader.
// A stream cannot be restarted.
func Stream(ctx context.Context, reader io.Reader, options StreamOptions) <-chan traceevent.Event {
	events := make(chan traceevent.Event, options.Buffer)
	go pump(ctx, reader, options, events, nil)
	return events
}

// pump is Stream's body. If done is non-nil it is closed after events.
func pump(ctx context.Context, reader io.Reader, options StreamOptions, events chan<- traceevent.Event, done chan<- struct{}) {
	defer func() {
		close(events)
		if done != nil {
			close(done)
		}
	}()

	decoder := NewDecoder(options.DecoderOptions)
	bufferSize := options.ReadBufferBytes
	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	buffer := make([]byte, bufferSize)

	deliver := func(batch []traceevent.Event) bool {
		for _, event := range batch {
			select {
			case events <- event:
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	for {
		if ctx.Err() != nil {
			return
		}
		count, err := reader.Read(buffer)
		if count > 0 && !deliver(decoder.Feed(buffer[:count])) {
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) && options.OnError != nil {
				options.OnError(err)
			}
			deliver(decoder.Flush())
			return
		}
	}
}
