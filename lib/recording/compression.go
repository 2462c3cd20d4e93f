// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recording

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm applied to a recording body.
// The names are stored in the header and are part of the file format.
type Compression uint8

const (
	// CompressionNone stores the body as a plain CBOR sequence. Useful
	// when inspecting a recording with generic CBOR tools.
	CompressionNone Compression = iota

	// CompressionZstd is the default. Event logs are repetitive text
	// (kinds, labels, ids) and compress well.
	CompressionZstd

	// CompressionLZ4 trades ratio for speed on very large logs.
	CompressionLZ4
)

// Compressions lists every supported algorithm.
func Compressions() []Compression {
	return []Compression{CompressionNone, CompressionZstd, CompressionLZ4}
}

func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(compression))
	}
}

// ParseCompression parses the name produced by String.
func ParseCompression(name string) (Compression, error) {
	for _, compression := range Compressions() {
		if compression.String() == name {
			return compression, nil
		}
	}
	return 0, fmt.Errorf("unknown recording compression %q (want none, zstd or lz4)", name)
}

// MarshalText stores the compression by name in the header.
func (compression Compression) MarshalText() ([]byte, error) {
	switch compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return []byte(compression.String()), nil
	}
	return nil, fmt.Errorf("cannot encode recording compression %d", uint8(compression))
}

// UnmarshalText is the inverse of MarshalText.
func (compression *Compression) UnmarshalText(text []byte) error {
	parsed, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*compression = parsed
	return nil
}

// compressor returns a writer that compresses into destination. Close
// flushes the compressor without closing destination.
func (compression Compression) compressor(destination io.Writer) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{destination}, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(destination, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(destination), nil
	default:
		return nil, fmt.Errorf("unsupported recording compression %d", uint8(compression))
	}
}

// decompressor returns a reader over the decompressed form of source
// and a function releasing its resources.
func (compression Compression) decompressor(source io.Reader) (io.Reader, func(), error) {
	switch compression {
	case CompressionNone:
		return source, func() {}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return decoder, decoder.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(source), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported recording compression %d", uint8(compression))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
