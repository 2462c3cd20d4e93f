// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recording writes and reads trace recordings: a run's event
// log exported to a file so it can be replayed and rendered later.
//
// A recording is a CBOR sequence (see lib/codec). The first item is an
// uncompressed [Header] naming the compression applied to everything
// after it. The compressed body is itself a CBOR sequence of records,
// one per event, closed by a trailer record carrying the event count
// and the BLAKE3 digest of the encoded events:
//
//	header | compress( {event: E1} {event: E2} ... {trailer: {count, digest}} )
//
// Read rejects a recording whose trailer is missing, whose count or
// digest disagrees with the events, or which has records after the
// trailer. The live event log is never persisted implicitly; a
// recording exists only when a caller writes one.
package recording
