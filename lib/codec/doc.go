// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the one CBOR configuration shared by the
// client, the transport, and the mock daemon.
//
// Every message on the daemon socket is a CBOR value, and object
// metadata payloads are CBOR maps. Encoding uses Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes, which is what makes metadata digests
// comparable across processes.
//
// Buffer-oriented use:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Wire types carry `cbor` struct tags only. Types that are also
// printed as JSON by the CLI use `json` tags, which fxamacker/cbor
// reads as a fallback. Never put both on one field.
package codec
