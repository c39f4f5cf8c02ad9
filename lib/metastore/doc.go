// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metastore is an in-memory, authoritative table of object
// metadata keyed by [objectid.ObjectID].
//
// It backs the mock daemon (lib/mockdaemon) and the in-process
// loopback client (lib/client.LoopbackClient). It is not a storage
// engine: nothing is persisted and object payloads are not held, only
// their metadata maps. Every stored map is CBOR-encoded with
// Core Deterministic Encoding at write time, so readers receive the
// exact bytes a daemon would send on the wire.
package metastore
