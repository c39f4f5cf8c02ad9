// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport carries framed byte messages between a client
// process and the object store daemon over a Unix domain socket.
//
// The package defines three interfaces: [Dialer] opens a [Conn] to a
// daemon socket, [Listener] accepts them on the daemon side, and
// [Conn] sends and receives whole messages. What the messages mean is
// not this package's concern; lib/ipc defines them and lib/codec
// encodes them.
//
// # Framing
//
// Each message travels as one frame: a 9-byte header followed by the
// body.
//
//	byte 0     compression tag (see [Compression])
//	bytes 1-4  body length on the wire, big-endian uint32
//	bytes 5-8  body length after decompression, big-endian uint32
//
// Both lengths are capped at [MaxFrameSize]. Senders compress bodies of
// at least [compressionThreshold] bytes when the connection is
// configured for it and compression actually saves space; receivers
// accept any tag regardless of their own configuration.
//
// # Cancellation
//
// A background goroutine per connection reads frames and hands them
// to Recv through a channel. Recv can therefore return on context
// cancellation without abandoning a half-read frame: the frame stays
// queued and the next Recv gets it. Callers that give up on a response
// must be prepared to see it later (lib/ipc sequence numbers exist for
// this).
//
// A Send interrupted by cancellation may leave a partial frame on the
// socket. The connection is then marked broken and every later call
// fails; the caller must reconnect.
//
// # Peer credentials
//
// On Linux, [UnixDialer] and [UnixListener] read SO_PEERCRED from the
// connected socket and expose the peer's pid, uid and gid through
// [Conn.Peer]. Elsewhere Peer returns the zero value.
package transport
