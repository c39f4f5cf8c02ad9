// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
)

// Conn is one framed, bidirectional connection. Send and Recv may be
// called from different goroutines; concurrent calls to Send are
// serialised, concurrent calls to Recv are not supported.
type Conn interface {
	// Send writes message as one frame. Blocks until the frame is
	// written, ctx is done, or the connection fails.
	Send(ctx context.Context, message []byte) error

	// Recv returns the next frame's body. Blocks until a frame
	// arrives, ctx is done, or the connection fails. On ctx expiry the
	// returned error wraps ctx.Err().
	Recv(ctx context.Context) ([]byte, error)

	// Close releases the socket. Safe to call more than once; only
	// the first call can return an error.
	Close() error

	// Peer returns the credentials of the process on the other end.
	Peer() PeerCredentials
}

// Dialer opens connections to a daemon socket.
type Dialer interface {
	// Dial connects to the socket at address. ctx bounds the connect
	// phase only.
	Dial(ctx context.Context, address string) (Conn, error)
}

// Listener accepts connections on the daemon side.
type Listener interface {
	// Accept blocks until a client connects or the listener is
	// closed. After Close it returns an error wrapping net.ErrClosed.
	Accept() (Conn, error)

	// Address returns the socket path being served.
	Address() string

	// Close stops accepting and removes the socket file.
	Close() error
}

// PeerCredentials identify the process on the other end of a
// connection. Zero when the platform cannot report them.
type PeerCredentials struct {
	PID int32
	UID uint32
	GID uint32
}

// Known reports whether the credentials were obtained from the kernel.
func (p PeerCredentials) Known() bool {
	return p.PID != 0
}

// ErrBroken is returned by every call on a connection after a partial
// write. The stream can no longer be parsed by the peer.
var ErrBroken = errors.New("transport: connection broken by interrupted write")

// ErrFrameTooLarge is returned when a message exceeds MaxFrameSize, on
// either the sending or the receiving side.
var ErrFrameTooLarge = errors.New("transport: frame exceeds maximum size")
