// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for trace recordings.
//
// The live wire protocol between a traced program and its host is JSON
// (one object per prefixed line, see lib/bridge). Recordings written to
// disk by "fibertrace run --record" are CBOR: a header, one item per
// event, and a trailer, concatenated as an RFC 8742 CBOR sequence.
//
// Every encoder in the module shares one mode built on Core
// Deterministic Encoding (RFC 8949 §4.2), so the same event list always
// produces the same bytes and therefore the same recording digest:
//
//	data, err := codec.Marshal(header)
//	err = codec.Unmarshal(data, &header)
//
// Streams go through NewEncoder and NewDecoder. traceevent.Event only
// carries `json` tags; fxamacker/cbor falls back to them, so an event
// has the same field names in both formats.
package codec
