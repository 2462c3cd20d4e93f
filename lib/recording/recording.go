// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recording

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/fibertrace/lib/clock"
	"github.com/bureau-foundation/fibertrace/lib/codec"
	"github.com/bureau-foundation/fibertrace/lib/traceevent"
)

// Format is the header format string of recordings this package
// writes. Read refuses any other value.
const Format = "fibertrace-recording/1"

var (
	// ErrFormat is returned when the header is missing or names an
	// unsupported format.
	ErrFormat = errors.New("not a fibertrace recording")

	// ErrTruncated is returned when the body ends before the trailer.
	ErrTruncated = errors.New("recording truncated: no trailer")

	// ErrCorrupt is returned for structurally invalid records: a record
	// that is neither an event nor a trailer, data after the trailer,
	// an event that fails validation, or a count mismatch.
	ErrCorrupt = errors.New("recording corrupt")

	// ErrDigestMismatch is returned when the events do not hash to the
	// digest stored in the trailer.
	ErrDigestMismatch = errors.New("recording digest mismatch")
)

// Header is the uncompressed first item of a recording.
type Header struct {
	Format      string      `cbor:"format"`
	Compression Compression `cbor:"compression"`
	RunID       uuid.UUID   `cbor:"runId"`
	CreatedAt   time.Time   `cbor:"createdAt"`
}

// Trailer closes the record sequence.
type Trailer struct {
	Count  uint64 `cbor:"count"`
	Digest []byte `cbor:"digest"`
}

// record is one item of the compressed body. Exactly one field is set.
// Events are kept as raw CBOR so the digest covers the stored bytes.
type record struct {
	Event   codec.RawMessage `cbor:"event,omitempty"`
	Trailer *Trailer         `cbor:"trailer,omitempty"`
}

// Recording is a decoded, verified recording.
type Recording struct {
	Header Header
	Events []traceevent.Event
	Digest []byte
}

// WriterOptions configures NewWriter.
type WriterOptions struct {
	// Compression applied to the body. The zero value is
	// CompressionNone; callers normally pass the configured value.
	Compression Compression

	// RunID identifies the run. A random UUID is generated when zero.
	RunID uuid.UUID

	// Clock stamps CreatedAt. Defaults to the real clock.
	Clock clock.Clock
}

// Writer streams events into a recording. Append and Emit may be
// called from multiple goroutines.
type Writer struct {
	mu         sync.Mutex
	header     Header
	compressor io.WriteCloser
	encoder    *codec.Encoder
	hasher     *blake3.Hasher
	count      uint64
	closed     bool
	// emitErr holds the first failure seen by Emit, reported by Close.
	emitErr error
}

// NewWriter writes the header to destination and returns a Writer for
// the body. Close must be called to write the trailer; it does not
// close destination.
func NewWriter(destination io.Writer, options WriterOptions) (*Writer, error) {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	runID := options.RunID
	if runID == uuid.Nil {
		generated, err := uuid.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("generating run id: %w", err)
		}
		runID = generated
	}

	header := Header{
		Format:      Format,
		Compression: options.Compression,
		RunID:       runID,
		CreatedAt:   options.Clock.Now().UTC(),
	}
	encodedHeader, err := codec.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encoding recording header: %w", err)
	}
	compressor, err := options.Compression.compressor(destination)
	if err != nil {
		return nil, err
	}
	if _, err := destination.Write(encodedHeader); err != nil {
		compressor.Close()
		return nil, fmt.Errorf("writing recording header: %w", err)
	}

	return &Writer{
		header:     header,
		compressor: compressor,
		encoder:    codec.NewEncoder(compressor),
		hasher:     blake3.New(),
	}, nil
}

// Header returns the header written by NewWriter.
func (writer *Writer) Header() Header {
	return writer.header
}

// Append adds one event to the recording.
func (writer *Writer) Append(event traceevent.Event) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return errors.New("recording writer is closed")
	}
	encoded, err := codec.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	if err := writer.encoder.Encode(record{Event: encoded}); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	writer.hasher.Write(encoded)
	writer.count++
	return nil
}

// Emit appends event, holding any error until Close. It lets a Writer
// sit behind a tracing.MultiSink next to the live view.
func (writer *Writer) Emit(event traceevent.Event) {
	if err := writer.Append(event); err != nil {
		writer.mu.Lock()
		if writer.emitErr == nil {
			writer.emitErr = err
		}
		writer.mu.Unlock()
	}
}

// Count returns the number of events appended so far.
func (writer *Writer) Count() uint64 {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	return writer.count
}

// Close writes the trailer and flushes the compressor. Calling Close
// more than once is a no-op after the first call.
func (writer *Writer) Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return nil
	}
	writer.closed = true

	trailer := &Trailer{Count: writer.count, Digest: writer.hasher.Sum(nil)}
	encodeErr := writer.encoder.Encode(record{Trailer: trailer})
	closeErr := writer.compressor.Close()
	switch {
	case writer.emitErr != nil:
		return writer.emitErr
	case encodeErr != nil:
		return fmt.Errorf("writing recording trailer: %w", encodeErr)
	case closeErr != nil:
		return fmt.Errorf("flushing %s compressor: %w", writer.header.Compression, closeErr)
	}
	return nil
}

// Read decodes and verifies a recording.
func Read(reader io.Reader) (*Recording, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}

	var header Header
	body, err := codec.UnmarshalFirst(data, &header)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding header: %v", ErrFormat, err)
	}
	if header.Format != Format {
		return nil, fmt.Errorf("%w: format %q", ErrFormat, header.Format)
	}

	source, release, err := header.Compression.decompressor(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer release()

	decoder := codec.NewDecoder(source)
	hasher := blake3.New()
	recording := &Recording{Header: header}
	var trailer *Trailer
	for {
		var entry record
		err := decoder.Decode(&entry)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, len(recording.Events), err)
		}
		if trailer != nil {
			return nil, fmt.Errorf("%w: data after trailer", ErrCorrupt)
		}

		switch {
		case len(entry.Event) > 0 && entry.Trailer != nil:
			return nil, fmt.Errorf("%w: record %d is both event and trailer", ErrCorrupt, len(recording.Events))
		case len(entry.Event) > 0:
			var event traceevent.Event
			if err := codec.Unmarshal(entry.Event, &event); err != nil {
				return nil, fmt.Errorf("%w: event %d: %v", ErrCorrupt, len(recording.Events), err)
			}
			if err := event.Validate(); err != nil {
				return nil, fmt.Errorf("%w: event %d: %v", ErrCorrupt, len(recording.Events), err)
			}
			hasher.Write(entry.Event)
			recording.Events = append(recording.Events, event)
		case entry.Trailer != nil:
			trailer = entry.Trailer
		default:
			return nil, fmt.Errorf("%w: empty record after event %d", ErrCorrupt, len(recording.Events))
		}
	}

	if trailer == nil {
		return nil, fmt.Errorf("%w after %d events", ErrTruncated, len(recording.Events))
	}
	if trailer.Count != uint64(len(recording.Events)) {
		return nil, fmt.Errorf("%w: trailer counts %d events, found %d",
			ErrCorrupt, trailer.Count, len(recording.Events))
	}
	recording.Digest = hasher.Sum(nil)
	if !bytes.Equal(recording.Digest, trailer.Digest) {
		return nil, fmt.Errorf("%w: computed %x, trailer has %x", ErrDigestMismatch, recording.Digest, trailer.Digest)
	}
	return recording, nil
}

// WriteFile writes events to a new recording at path.
func WriteFile(path string, events []traceevent.Event, options WriterOptions) (Header, error) {
	file, err := os.Create(path)
	if err != nil {
		return Header{}, fmt.Errorf("creating recording: %w", err)
	}
	writer, err := NewWriter(file, options)
	if err != nil {
		file.Close()
		return Header{}, err
	}
	for _, event := range events {
		if err := writer.Append(event); err != nil {
			file.Close()
			return Header{}, err
		}
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return Header{}, err
	}
	if err := file.Close(); err != nil {
		return Header{}, fmt.Errorf("closing recording %s: %w", path, err)
	}
	return writer.Header(), nil
}

// ReadFile reads and verifies the recording at path.
func ReadFile(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer file.Close()
	recording, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recording, nil
}

// Diagnose renders the raw items of a recording in CBOR diagnostic
// notation: the header followed by each decompressed body record. It
// does not verify the digest, so it also works on damaged files.
func Diagnose(reader io.Reader) ([]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	var header Header
	body, err := codec.UnmarshalFirst(data, &header)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding header: %v", ErrFormat, err)
	}
	items, err := codec.Diagnose(data[:len(data)-len(body)])
	if err != nil {
		return nil, err
	}

	source, release, err := header.Compression.decompressor(bytes.NewReader(body))
	if err != nil {
		return items, err
	}
	defer release()
	decompressed, err := io.ReadAll(source)
	if err != nil {
		return items, fmt.Errorf("decompressing %s body: %w", header.Compression, err)
	}
	bodyItems, err := codec.Diagnose(decompressed)
	return append(items, bodyItems...), err
}
