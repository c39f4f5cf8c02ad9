// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc defines the CBOR-encoded message types spoken on the
// object store daemon's Unix socket. The client (lib/client) and the
// mock daemon (lib/mockdaemon) both import this package so the wire
// types are defined once rather than mirrored.
//
// A session is a sequence of request/response pairs over one
// connection. Every request carries a sequence number that the daemon
// echoes in its response; the client uses it to drop responses that
// belong to requests it already gave up on. The first request on a
// connection must be "handshake".
package ipc
